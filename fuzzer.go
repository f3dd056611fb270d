package seedgraph

// Fuzzer is a bibliographic entry describing a published fuzzing tool. A
// zero Year means the year is unknown.
type Fuzzer struct {
	ID int `json:"-" yaml:"-"`

	Name      string   `json:"name" yaml:"name" validate:"required"`
	Year      int      `json:"year,omitempty" yaml:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Author    []string `json:"author,omitempty" yaml:"author,omitempty" validate:"omitempty,dive,required"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	Booktitle string   `json:"booktitle,omitempty" yaml:"booktitle,omitempty"`
	Journal   string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Volume    string   `json:"volume,omitempty" yaml:"volume,omitempty"`
	Number    string   `json:"number,omitempty" yaml:"number,omitempty"`
	ToolURL   string   `json:"toolurl,omitempty" yaml:"toolurl,omitempty" validate:"omitempty,url"`
	Targets   []string `json:"targets" yaml:"targets" validate:"required,dive,required"`
}

type Pagination struct {
	Total  uint64 `json:"total"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

type FuzzerSearch struct {
	Q string `json:"q"`

	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

type FuzzerSearchResults struct {
	IDs        []int
	Pagination Pagination
}

type FuzzerRepository interface {
	Get(...int) ([]Fuzzer, error)
	GetByName(string) (Fuzzer, bool, error)
	List() ([]Fuzzer, error)
	Upsert(*Fuzzer) error
	Delete(int) error
}

type FuzzerIndex interface {
	Index(*Fuzzer) error
	Search(FuzzerSearch) (FuzzerSearchResults, error)
	Delete(int) error
}
