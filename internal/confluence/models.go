package confluence

type Content struct {
	ID         string      `json:"id,omitempty"`
	Type       string      `json:"type,omitempty"`
	Status     string      `json:"status,omitempty"`
	Title      string      `json:"title,omitempty"`
	Space      *Space      `json:"space,omitempty"`
	Version    *Version    `json:"version,omitempty"`
	Ancestors  []Content   `json:"ancestors,omitempty"`
	ChildTypes *ChildTypes `json:"childTypes,omitempty"`
	Body       *Body       `json:"body,omitempty"`
}

type Space struct {
	Key string `json:"key,omitempty"`
}

type Version struct {
	Number int `json:"number"`
}

type Body struct {
	Storage *ContentBody `json:"storage,omitempty"`
}

type ContentBody struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type ChildTypes struct {
	Page *ChildTypeValue `json:"page,omitempty"`
}

type ChildTypeValue struct {
	Value bool `json:"value"`
}

type ContentList struct {
	Results []Content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
}

type CreateContent struct {
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Space     *Space    `json:"space,omitempty"`
	Ancestors []Content `json:"ancestors,omitempty"`
	Body      *Body     `json:"body,omitempty"`
}

type UpdateContent struct {
	Title     string    `json:"title,omitempty"`
	Type      string    `json:"type"`
	Version   *Version  `json:"version"`
	Ancestors []Content `json:"ancestors,omitempty"`
	Body      *Body     `json:"body,omitempty"`
}

func storageBody(value string) *Body {
	return &Body{Storage: &ContentBody{Value: value, Representation: "storage"}}
}
