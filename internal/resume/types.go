package resume

// Document is the résumé file as published next to the app. Every field is
// optional: pointers are nil when absent, slices are nil when absent and
// empty strings are treated as absent when rendering.
type Document struct {
	Data *Data `json:"data,omitempty" mapstructure:"data"`

	// Raw holds the bytes the document was parsed from, including fields
	// the types above do not model.
	Raw []byte `json:"-" mapstructure:"-"`
}

type Data struct {
	Basics         *Basics          `json:"basics,omitempty" mapstructure:"basics"`
	Summary        *ContentSection  `json:"summary,omitempty" mapstructure:"summary"`
	Sections       *Sections        `json:"sections,omitempty" mapstructure:"sections"`
	CustomSections []*CustomSection `json:"customSections,omitempty" mapstructure:"customSections"`
}

type Website struct {
	URL   string `json:"url,omitempty" mapstructure:"url"`
	Label string `json:"label,omitempty" mapstructure:"label"`
}

type Basics struct {
	Name     string   `json:"name,omitempty" mapstructure:"name"`
	Headline string   `json:"headline,omitempty" mapstructure:"headline"`
	Email    string   `json:"email,omitempty" mapstructure:"email"`
	Phone    string   `json:"phone,omitempty" mapstructure:"phone"`
	Location string   `json:"location,omitempty" mapstructure:"location"`
	Website  *Website `json:"website,omitempty" mapstructure:"website"`
}

type ContentSection struct {
	Title   string `json:"title,omitempty" mapstructure:"title"`
	Columns int    `json:"columns,omitempty" mapstructure:"columns"`
	Hidden  bool   `json:"hidden,omitempty" mapstructure:"hidden"`
	Content string `json:"content,omitempty" mapstructure:"content"`
}

type CustomSection struct {
	ID      string `json:"id,omitempty" mapstructure:"id"`
	Title   string `json:"title,omitempty" mapstructure:"title"`
	Columns int    `json:"columns,omitempty" mapstructure:"columns"`
	Hidden  bool   `json:"hidden,omitempty" mapstructure:"hidden"`
	Content string `json:"content,omitempty" mapstructure:"content"`
}

type Sections struct {
	Profiles       *Section[Profile]       `json:"profiles,omitempty" mapstructure:"profiles"`
	Experience     *Section[Experience]    `json:"experience,omitempty" mapstructure:"experience"`
	Education      *Section[Education]     `json:"education,omitempty" mapstructure:"education"`
	Skills         *Section[Skill]         `json:"skills,omitempty" mapstructure:"skills"`
	Certifications *Section[Certification] `json:"certifications,omitempty" mapstructure:"certifications"`
	Projects       *Section[Project]       `json:"projects,omitempty" mapstructure:"projects"`
}

// Section is a titled list of items. A hidden section hides all its items.
type Section[T Hideable] struct {
	Title   string `json:"title,omitempty" mapstructure:"title"`
	Columns int    `json:"columns,omitempty" mapstructure:"columns"`
	Hidden  bool   `json:"hidden,omitempty" mapstructure:"hidden"`
	Items   []T    `json:"items,omitempty" mapstructure:"items"`
}

type Profile struct {
	Hidden   bool     `json:"hidden,omitempty" mapstructure:"hidden"`
	Network  string   `json:"network,omitempty" mapstructure:"network"`
	Username string   `json:"username,omitempty" mapstructure:"username"`
	Website  *Website `json:"website,omitempty" mapstructure:"website"`
}

type Experience struct {
	Hidden      bool     `json:"hidden,omitempty" mapstructure:"hidden"`
	Company     string   `json:"company,omitempty" mapstructure:"company"`
	Position    string   `json:"position,omitempty" mapstructure:"position"`
	Location    string   `json:"location,omitempty" mapstructure:"location"`
	Period      string   `json:"period,omitempty" mapstructure:"period"`
	Website     *Website `json:"website,omitempty" mapstructure:"website"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
}

type Education struct {
	Hidden      bool     `json:"hidden,omitempty" mapstructure:"hidden"`
	School      string   `json:"school,omitempty" mapstructure:"school"`
	Degree      string   `json:"degree,omitempty" mapstructure:"degree"`
	Area        string   `json:"area,omitempty" mapstructure:"area"`
	Period      string   `json:"period,omitempty" mapstructure:"period"`
	Website     *Website `json:"website,omitempty" mapstructure:"website"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
}

type Skill struct {
	Hidden      bool   `json:"hidden,omitempty" mapstructure:"hidden"`
	Name        string `json:"name,omitempty" mapstructure:"name"`
	Proficiency string `json:"proficiency,omitempty" mapstructure:"proficiency"`
}

type Certification struct {
	Hidden      bool     `json:"hidden,omitempty" mapstructure:"hidden"`
	Title       string   `json:"title,omitempty" mapstructure:"title"`
	Issuer      string   `json:"issuer,omitempty" mapstructure:"issuer"`
	Date        string   `json:"date,omitempty" mapstructure:"date"`
	Website     *Website `json:"website,omitempty" mapstructure:"website"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
}

type Project struct {
	Hidden      bool     `json:"hidden,omitempty" mapstructure:"hidden"`
	Name        string   `json:"name,omitempty" mapstructure:"name"`
	Period      string   `json:"period,omitempty" mapstructure:"period"`
	Website     *Website `json:"website,omitempty" mapstructure:"website"`
	Description string   `json:"description,omitempty" mapstructure:"description"`
}

// Hideable is implemented by every section item.
type Hideable interface {
	IsHidden() bool
}

func (p Profile) IsHidden() bool       { return p.Hidden }
func (e Experience) IsHidden() bool    { return e.Hidden }
func (e Education) IsHidden() bool     { return e.Hidden }
func (s Skill) IsHidden() bool         { return s.Hidden }
func (c Certification) IsHidden() bool { return c.Hidden }
func (p Project) IsHidden() bool       { return p.Hidden }

// Visible returns the items of a section that should be displayed. It is
// empty for a nil or hidden section.
func Visible[T Hideable](section *Section[T]) []T {
	if section == nil || section.Hidden {
		return nil
	}

	items := make([]T, 0, len(section.Items))
	for _, item := range section.Items {
		if item.IsHidden() {
			continue
		}
		items = append(items, item)
	}
	return items
}

// VisibleCustom returns the custom sections that are not hidden.
func VisibleCustom(sections []*CustomSection) []*CustomSection {
	visible := make([]*CustomSection, 0, len(sections))
	for _, s := range sections {
		if s == nil || s.Hidden {
			continue
		}
		visible = append(visible, s)
	}
	return visible
}
