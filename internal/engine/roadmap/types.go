// Package roadmap holds the canonical curriculum tree and everything that
// operates on it: retrieval over precomputed embeddings, reranking, repair of
// model output and the structure-preserving personalization merge.
package roadmap

// Status is the per-item personalization verdict.
type Status string

const (
	StatusAlreadyMastered Status = "already_mastered"
	StatusHighPriority    Status = "high_priority"
	StatusMediumPriority  Status = "medium_priority"
	StatusLowPriority     Status = "low_priority"
	StatusOptional        Status = "optional"
	StatusNotAssigned     Status = "not_assigned"
)

// PriorityUnassigned marks an item the model gave no priority for.
const PriorityUnassigned = 999

var knownStatuses = map[Status]bool{
	StatusAlreadyMastered: true,
	StatusHighPriority:    true,
	StatusMediumPriority:  true,
	StatusLowPriority:     true,
	StatusOptional:        true,
	StatusNotAssigned:     true,
}

// Personalization is the fully-populated annotation attached to every output item.
type Personalization struct {
	Status                  Status `json:"status" yaml:"status"`
	Priority                int    `json:"priority" yaml:"priority"`
	PersonalizedDescription string `json:"personalized_description" yaml:"personalized_description"`
	Reason                  string `json:"reason" yaml:"reason"`
}

// DefaultPersonalization is the record for items the model said nothing about.
func DefaultPersonalization() Personalization {
	return Personalization{Status: StatusNotAssigned, Priority: PriorityUnassigned}
}

// Roadmap is the trusted 4-level tree: career → stage → area → item.
type Roadmap struct {
	CareerID   string  `json:"career_id" yaml:"career_id"`
	CareerName string  `json:"career_name" yaml:"career_name"`
	Stages     []Stage `json:"stages" yaml:"stages"`
}

type Stage struct {
	ID                   string       `json:"id" yaml:"id"`
	Name                 string       `json:"name" yaml:"name"`
	RecommendedSemesters SemesterSpan `json:"recommended_semesters,omitzero" yaml:"recommended_semesters,omitempty"`
	Areas                []Area       `json:"areas" yaml:"areas"`
}

type Area struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// Item is a leaf of the tree. Check and Personalization are the only fields
// personalization may set; canonical files normally leave them empty.
type Item struct {
	ID              string           `json:"id" yaml:"id"`
	Title           string           `json:"title" yaml:"title"`
	Description     string           `json:"description" yaml:"description"`
	Tags            []string         `json:"tags" yaml:"tags"`
	Prerequisites   []string         `json:"prerequisites" yaml:"prerequisites"`
	RequiredSkills  []string         `json:"required_skills" yaml:"required_skills"`
	EstimatedHours  float64          `json:"estimated_hours" yaml:"estimated_hours"`
	OrderIndex      int              `json:"order_index" yaml:"order_index"`
	Check           bool             `json:"check" yaml:"check"`
	Personalization *Personalization `json:"personalization,omitempty" yaml:"personalization,omitempty"`
}

// Clone returns a deep copy; the receiver is never shared with the copy.
func (r *Roadmap) Clone() *Roadmap {
	if r == nil {
		return nil
	}
	out := &Roadmap{CareerID: r.CareerID, CareerName: r.CareerName}
	if r.Stages != nil {
		out.Stages = make([]Stage, len(r.Stages))
	}
	for i, st := range r.Stages {
		st.RecommendedSemesters = st.RecommendedSemesters.clone()
		areas := st.Areas
		if areas != nil {
			st.Areas = make([]Area, len(areas))
		}
		for j, ar := range areas {
			items := ar.Items
			if items != nil {
				ar.Items = make([]Item, len(items))
			}
			for k, it := range items {
				ar.Items[k] = it.clone()
			}
			st.Areas[j] = ar
		}
		out.Stages[i] = st
	}
	return out
}

func (it Item) clone() Item {
	it.Tags = cloneStrings(it.Tags)
	it.Prerequisites = cloneStrings(it.Prerequisites)
	it.RequiredSkills = cloneStrings(it.RequiredSkills)
	if it.Personalization != nil {
		p := *it.Personalization
		it.Personalization = &p
	}
	return it
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Counts returns the number of stages, areas and items in the tree.
func (r *Roadmap) Counts() (stages, areas, items int) {
	for _, st := range r.Stages {
		stages++
		for _, ar := range st.Areas {
			areas++
			items += len(ar.Items)
		}
	}
	return stages, areas, items
}

// ItemIDs lists item ids in tree order.
func (r *Roadmap) ItemIDs() []string {
	var ids []string
	for _, st := range r.Stages {
		for _, ar := range st.Areas {
			for _, it := range ar.Items {
				ids = append(ids, it.ID)
			}
		}
	}
	return ids
}
