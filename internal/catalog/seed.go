package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// SeedProducts is the storefront's launch catalog.
func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:              "designer-shirt-1",
			Name:            "Geometric Pattern Silk Shirt",
			Description:     "Luxurious silk shirt with a unique geometric pattern design.",
			LongDescription: "This premium silk shirt features a hand-designed geometric pattern that captures the essence of modern LA style. Each shirt is crafted from 100% natural silk for a luxurious feel and elegant drape.",
			Price:           price("189.99"),
			Image:           "https://images.unsplash.com/photo-1596755094514-f87e34085b2c?q=80&w=2676&auto=format&fit=crop",
			Category:        "shirts",
			Features: []string{
				"100% natural silk",
				"Hand-designed geometric pattern",
				"Mother-of-pearl buttons",
				"Relaxed fit",
				"Dry clean only",
			},
		},
		{
			ID:              "designer-shirt-2",
			Name:            "Abstract Art Cotton Shirt",
			Description:     "Comfortable cotton shirt featuring original abstract artwork.",
			LongDescription: "This unique cotton shirt showcases an original abstract design by local LA artist Maria Rodriguez. The breathable, premium cotton fabric ensures all-day comfort while making a bold fashion statement.",
			Price:           price("129.99"),
			Image:           "https://images.unsplash.com/photo-1626497764746-6dc36546b388?q=80&w=2626&auto=format&fit=crop",
			Category:        "shirts",
			Features: []string{
				"100% organic cotton",
				"Original artwork by Maria Rodriguez",
				"Machine washable",
				"Regular fit",
				"Sustainably produced",
			},
		},
		{
			ID:              "personalized-necklace-1",
			Name:            "Custom Initial Gold Necklace",
			Description:     "Elegant 14k gold necklace with your custom initial pendant.",
			LongDescription: "This stunning 14k gold necklace features a handcrafted pendant with your chosen initial. Each piece is individually made by our master jeweler with meticulous attention to detail, creating a truly personal accessory that will last a lifetime.",
			Price:           price("249.99"),
			Image:           "https://images.unsplash.com/photo-1611652022419-a9419f74343d?q=80&w=2574&auto=format&fit=crop",
			Category:        "jewelry",
			Features: []string{
				"14k solid gold",
				"Handcrafted by local artisans",
				"Customizable initial pendant",
				"18-inch adjustable chain",
				"Comes in a premium gift box",
			},
		},
		{
			ID:              "art-piece-1",
			Name:            "LA Skyline Mixed Media Artwork",
			Description:     "Original mixed media artwork depicting the LA skyline at sunset.",
			LongDescription: "This striking original artwork captures the iconic LA skyline at sunset using a unique mixed media technique. The artist combines acrylic paint, ink, and collage elements to create depth and texture that brings the city to life on canvas.",
			Price:           price("499.99"),
			Image:           "https://images.unsplash.com/photo-1518998053901-5348d3961a04?q=80&w=2574&auto=format&fit=crop",
			Category:        "art",
			Features: []string{
				"Original one-of-a-kind artwork",
				"Mixed media on canvas",
				`Size: 24" x 36"`,
				"Signed by the artist",
				"Includes certificate of authenticity",
			},
		},
		{
			ID:              "personalized-bracelet-1",
			Name:            "Custom Coordinate Silver Bracelet",
			Description:     "Sterling silver bracelet engraved with coordinates of your special place.",
			LongDescription: "This elegant sterling silver bracelet can be personalized with the coordinates of a location that holds special meaning for you. Each bracelet is hand-finished and engraved by our skilled artisans in our LA studio.",
			Price:           price("159.99"),
			Image:           "https://images.unsplash.com/photo-1573408301185-9146fe634ad0?q=80&w=2574&auto=format&fit=crop",
			Category:        "jewelry",
			Features: []string{
				"925 sterling silver",
				"Custom coordinate engraving",
				"Adjustable size",
				"Tarnish-resistant finish",
				"Handcrafted in Los Angeles",
			},
		},
		{
			ID:              "designer-shirt-3",
			Name:            "LA Vintage Graphic Tee",
			Description:     "Premium cotton t-shirt with vintage-inspired LA graphic.",
			LongDescription: "This super-soft premium cotton t-shirt features a vintage-inspired graphic celebrating the iconic landmarks and culture of Los Angeles. Each shirt is screen-printed by hand using eco-friendly inks for a unique, slightly distressed look.",
			Price:           price("79.99"),
			Image:           "https://images.unsplash.com/photo-1576566588028-4147f3842f27?q=80&w=2664&auto=format&fit=crop",
			Category:        "shirts",
			Features: []string{
				"Premium combed cotton",
				"Hand screen-printed graphic",
				"Pre-shrunk fabric",
				"Relaxed unisex fit",
				"Eco-friendly production",
			},
		},
		{
			ID:              "art-piece-2",
			Name:            "Abstract Resin Wall Art",
			Description:     "Handcrafted resin wall art with vibrant colors and gold accents.",
			LongDescription: "This stunning piece of wall art is handcrafted using resin techniques to create flowing, organic patterns in vibrant colors with gold leaf accents. Each piece is completely unique due to the nature of the resin pouring process.",
			Price:           price("349.99"),
			Image:           "https://images.unsplash.com/photo-1549490349-8643362247b5?q=80&w=2574&auto=format&fit=crop",
			Category:        "art",
			Features: []string{
				"Handcrafted resin art",
				"Real gold leaf accents",
				`Size: 18" round`,
				"Ready to hang",
				"Signed by the artist",
			},
		},
		{
			ID:              "personalized-ring-1",
			Name:            "Custom Birthstone Silver Ring",
			Description:     "Sterling silver ring with your choice of birthstone.",
			LongDescription: "This delicate sterling silver ring features your choice of birthstone in a modern, minimalist setting. Each ring is made to order in our LA studio, creating a personal piece of jewelry that celebrates your unique story.",
			Price:           price("129.99"),
			Image:           "https://images.unsplash.com/photo-1605100804763-247f67b3557e?q=80&w=2670&auto=format&fit=crop",
			Category:        "jewelry",
			Features: []string{
				"925 sterling silver",
				"Genuine birthstone",
				"Available in sizes 5-10",
				"Rhodium plated for durability",
				"Comes in a premium gift box",
			},
		},
	}
}

// SeedPlans are the Self-Love Box subscription plans, priced per box.
func SeedPlans() []domain.SubscriptionPlan {
	return []domain.SubscriptionPlan{
		{
			ID:          "monthly",
			Name:        "Monthly",
			Price:       price("89"),
			Interval:    "month",
			Description: "Perfect for trying out our subscription",
			Features:    []string{"Premium self-care products", "Artisan jewelry piece", "Exclusive digital content", "Cancel anytime"},
		},
		{
			ID:          "quarterly",
			Name:        "Quarterly",
			Price:       price("79"),
			Interval:    "quarter",
			Description: "Our most popular plan",
			Features: []string{
				"Everything in Monthly",
				"Free shipping",
				"Bonus luxury item",
				"Early access to new products",
				"15% off regular store items",
			},
			Popular: true,
		},
		{
			ID:          "annual",
			Name:        "Annual",
			Price:       price("69"),
			Interval:    "year",
			Description: "Best value for committed subscribers",
			Features: []string{
				"Everything in Quarterly",
				"Two bonus luxury items",
				"Personalized curation",
				"25% off regular store items",
				"Exclusive annual gift",
			},
		},
	}
}
