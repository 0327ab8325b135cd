package agenttask

// Spec names a report section and the goal its agent pursues. Specs are
// immutable; the three workflow instances are created at startup and never
// change.
type Spec struct {
	Section string
	Goal    string
}

// Section names, in workflow order.
const (
	SectionProduct = "Product Profile"
	SectionPrice   = "Price & Availability"
	SectionNews    = "Trending News & Social Buzz"
)

// DefaultSpecs returns the three fixed agent specs in workflow order:
// product, price, news.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Section: SectionProduct,
			Goal: "Collect full product profile: official images, title, key specs, " +
				"variants, dimensions, weight, materials, warranty, box contents. " +
				"Prefer official sources. Provide clean summary and source links. " +
				"from indian e commerce sites only.",
		},
		{
			Section: SectionPrice,
			Goal: "Find availability across major Indian e-commerce sites (Amazon, " +
				"Flipkart, Reliance, Croma, Vijay Sales, official store) and PROVIDE " +
				"THE BUYING LINK. For each: price, currency, stock status, shipping " +
				"ETA, seller, warranty notes, URL. Output a concise comparison.",
		},
		{
			Section: SectionNews,
			Goal: "Summarize recent trending news, memes, launch rumors, " +
				"controversies, major reviews about the product. Include dates, " +
				"sources, and brief takeaways.",
		},
	}
}
