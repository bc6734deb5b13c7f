package roadmap

import "strings"

// Flatten turns every item of r into a corpus document (without embedding).
// The text carries the item's full path so one vector describes it in context.
func Flatten(r *Roadmap) []Document {
	var docs []Document
	for _, st := range r.Stages {
		for _, ar := range st.Areas {
			for _, it := range ar.Items {
				docs = append(docs, Document{
					DocID:    it.ID,
					CareerID: r.CareerID,
					StageID:  st.ID,
					AreaID:   ar.ID,
					Text:     itemText(r, st, ar, it),
				})
			}
		}
	}
	return docs
}

func itemText(r *Roadmap, st Stage, ar Area, it Item) string {
	return strings.Join([]string{
		"Nghề: " + r.CareerName + " (" + r.CareerID + ")",
		"Giai đoạn: " + st.Name,
		"Lĩnh vực: " + ar.Name,
		"Mục: " + it.Title,
		"Mô tả: " + it.Description,
		"Tags: " + strings.Join(it.Tags, ", "),
		"Kỳ khuyến nghị: " + st.RecommendedSemesters.String(),
	}, "\n")
}
