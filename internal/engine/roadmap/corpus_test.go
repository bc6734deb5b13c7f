package roadmap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCorpus_PythonExport(t *testing.T) {
	// utf-8-sig export: BOM, quoted multi-line text, list repr embedding
	in := "\ufeffdoc_id,career_id,stage_id,area_id,text,embedding\n" +
		"ml-001,ml,s1,a1,\"Nghề: ML (ml)\nMục: Linear algebra\",\"[0.1, -0.25, 3e-05]\"\n" +
		"ml-002,ml,s1,a1,Probability,\"[1.0, 2.0, 3.0]\"\n"

	docs, err := ReadCorpus(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "ml-001", docs[0].DocID)
	assert.Equal(t, "ml", docs[0].CareerID)
	assert.Equal(t, "s1", docs[0].StageID)
	assert.Equal(t, "a1", docs[0].AreaID)
	assert.Equal(t, "Nghề: ML (ml)\nMục: Linear algebra", docs[0].Text)
	assert.Equal(t, []float64{0.1, -0.25, 3e-05}, docs[0].Embedding)
	assert.Equal(t, []float64{1, 2, 3}, docs[1].Embedding)
}

func TestReadCorpus_FlattenedWithoutEmbedding(t *testing.T) {
	docs, err := ReadCorpus(strings.NewReader("text,doc_id\nhello,d1\n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "d1", docs[0].DocID)
	assert.Equal(t, "hello", docs[0].Text)
	assert.Nil(t, docs[0].Embedding)
}

func TestReadCorpus_Errors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":          "",
		"missing doc_id": "text,embedding\nx,[1]\n",
		"bad embedding":  "doc_id,text,embedding\nd1,x,not-a-list\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCorpus(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestWriteCorpus_RoundTrip(t *testing.T) {
	docs := []Document{
		{DocID: "d1", CareerID: "c", StageID: "s", AreaID: "a", Text: "line one\nline, two \"quoted\"", Embedding: []float64{0.5, -1e-7, 12}},
		{DocID: "d2", CareerID: "c", StageID: "s", AreaID: "a", Text: "plain", Embedding: []float64{}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCorpus(&buf, docs, true))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))

	got, err := ReadCorpus(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, docs[0], got[0])
	assert.Equal(t, "plain", got[1].Text)
	assert.Empty(t, got[1].Embedding)
}

func TestWriteCorpus_WithoutEmbedding(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCorpus(&buf, []Document{{DocID: "d1", Text: "t", Embedding: []float64{1}}}, false))
	lines := strings.Split(strings.TrimPrefix(buf.String(), "\ufeff"), "\n")
	assert.Equal(t, "doc_id,career_id,stage_id,area_id,text", lines[0])
	assert.Equal(t, "d1,,,,t", lines[1])
}

func TestFlatten(t *testing.T) {
	docs := Flatten(sampleRoadmap())
	require.Len(t, docs, 4)

	d := docs[1]
	assert.Equal(t, "ml-002", d.DocID)
	assert.Equal(t, "ml_engineer", d.CareerID)
	assert.Equal(t, "s1", d.StageID)
	assert.Equal(t, "a1", d.AreaID)
	assert.Equal(t, "Nghề: Machine Learning Engineer (ml_engineer)\n"+
		"Giai đoạn: Foundations\n"+
		"Lĩnh vực: Math\n"+
		"Mục: Probability\n"+
		"Mô tả: \n"+
		"Tags: math, stats\n"+
		"Kỳ khuyến nghị: [1, 2]", d.Text)

	assert.True(t, strings.HasSuffix(docs[3].Text, "Kỳ khuyến nghị: "))
	assert.Equal(t, []string{"ml-001", "ml-002", "ml-003", "ml-004"}, []string{docs[0].DocID, docs[1].DocID, docs[2].DocID, docs[3].DocID})
}
