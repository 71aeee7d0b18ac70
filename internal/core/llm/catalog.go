package llm

// Model is one selectable entry of the model catalog.
type Model struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ProviderModel string `json:"model_id"`
	Description   string `json:"description"`
}

// Catalog is the fixed list of models callers may pick from. Unknown ids fall
// back to the default entry.
type Catalog struct {
	models []Model
	def    Model
}

var builtinModels = []Model{
	{
		ID:            "flan-t5-legal",
		Name:          "FLAN-T5 Legal",
		ProviderModel: "google/flan-t5-base",
		Description:   "T5 model for legal QA",
	},
	{
		ID:            "legal-bert",
		Name:          "Legal-BERT",
		ProviderModel: "nlpaueb/legal-bert-base-uncased",
		Description:   "Specialized BERT for legal text",
	},
}

// NewCatalog returns the built-in catalog with defaultID as its default. An
// unknown defaultID selects the first entry.
func NewCatalog(defaultID string) *Catalog {
	c := &Catalog{models: builtinModels, def: builtinModels[0]}
	if m, ok := c.Lookup(defaultID); ok {
		c.def = m
	}
	return c
}

func (c *Catalog) Lookup(id string) (Model, bool) {
	for _, m := range c.models {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}

// Resolve maps a caller supplied id onto a catalog entry.
func (c *Catalog) Resolve(id string) Model {
	if m, ok := c.Lookup(id); ok {
		return m
	}
	return c.def
}

func (c *Catalog) Default() Model { return c.def }

func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}
