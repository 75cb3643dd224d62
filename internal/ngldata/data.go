package ngldata

// RawContent pairs a stored payload with the format tag it was ingested
// under. Results are never rendered — callers receive the tag and the raw
// text and decide what to do with it.
type RawContent struct {
	Format Format `json:"format"`
	Text   string `json:"text"`
}

// SourceRef back-points a standalone Example result to the host that owns
// it, resolved in the guide/function/option/package/type lookup order.
type SourceRef struct {
	HostKind Kind   `json:"host_kind"`
	HostID   int64  `json:"host_id"`
	Link     string `json:"link"`
}

type FunctionData struct {
	Name          string     `json:"name"`
	Signature     *string    `json:"signature,omitempty"`
	Content       RawContent `json:"content"`
	SourceURL     *string    `json:"source_url,omitempty"`
	SourceCodeURL *string    `json:"source_code_url,omitempty"`
	Aliases       []string   `json:"aliases,omitempty"`
}

type ExampleData struct {
	Language   *Language  `json:"language,omitempty"`
	Code       string     `json:"code"`
	SourceKind *Kind      `json:"source_kind,omitempty"`
	Source     *SourceRef `json:"source,omitempty"`
}

type GuideData struct {
	Link    string     `json:"link"`
	Title   string     `json:"title"`
	Content RawContent `json:"content"`
}

type OptionData struct {
	Name          string     `json:"name"`
	TypeSignature *string    `json:"type_signature,omitempty"`
	DefaultValue  *string    `json:"default_value,omitempty"`
	Content       RawContent `json:"content"`
}

type PackageData struct {
	Name          string     `json:"name"`
	Version       *string    `json:"version,omitempty"`
	Content       RawContent `json:"content"`
	Description   *string    `json:"description,omitempty"`
	Homepage      *string    `json:"homepage,omitempty"`
	License       *string    `json:"license,omitempty"`
	SourceCodeURL *string    `json:"source_code_url,omitempty"`
	Broken        bool       `json:"broken"`
	Unfree        bool       `json:"unfree"`
}

type TypeData struct {
	Name    string     `json:"name"`
	Content RawContent `json:"content"`
}

// NGLData is a tagged union over the six documentation kinds. Data holds
// one of FunctionData, ExampleData, GuideData, OptionData, PackageData, or
// TypeData depending on Kind.
type NGLData struct {
	Kind Kind        `json:"kind"`
	Data interface{} `json:"data"`
}

// Request is the caller-facing search request: an optional free-text term,
// an optional provider allowlist, and an optional kind restriction.
type Request struct {
	SearchTerm *string
	Providers  []string
	Kinds      []Kind
}

// ProviderMatches groups search results by the provider that produced them,
// the shape the CLI marshals to JSON.
type ProviderMatches struct {
	ProviderName string    `json:"provider_name"`
	Matches      []NGLData `json:"matches"`
}
