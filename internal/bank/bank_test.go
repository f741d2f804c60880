package bank_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrp-academy/trainportal/internal/bank"
)

func TestEmbeddedCatalog(t *testing.T) {
	c, err := bank.LoadEmbedded()
	require.NoError(t, err)
	assert.Equal(t, 60, c.Len())

	for id := bank.MinModuleID; id <= bank.MaxModuleID; id++ {
		assert.Len(t, c.ForModule(id), 15, "module %d", id)
	}

	e, ok := c.Get("m1-q01")
	require.True(t, ok)
	assert.Equal(t, 1, e.ModuleID)
	assert.Len(t, e.Options, bank.OptionsPerQuestion)
	assert.Contains(t, e.Options, e.CorrectAnswer)
}

func TestViewOmitsCorrectAnswer(t *testing.T) {
	e := bank.Entry{
		ID:            "m2-q99",
		ModuleID:      2,
		Prompt:        "Which safeguard is administrative?",
		CorrectAnswer: "Security awareness training",
		Options:       []string{"Security awareness training", "Disk encryption", "Firewalls", "CCTV"},
	}
	body, err := json.Marshal(e.View())
	require.NoError(t, err)
	assert.NotContains(t, string(body), "correct")

	v := e.View()
	v.Options[0] = "scribbled over"
	assert.Equal(t, "Security awareness training", e.Options[0], "view must not alias catalog options")
}

func TestLoadRejectsMalformedEntries(t *testing.T) {
	valid := bank.Entry{
		ID:            "m1-q01",
		ModuleID:      1,
		Prompt:        "p",
		CorrectAnswer: "a",
		Options:       []string{"a", "b", "c", "d"},
	}

	cases := []struct {
		name   string
		mutate func(*bank.Entry)
	}{
		{"missing id", func(e *bank.Entry) { e.ID = "" }},
		{"module out of range", func(e *bank.Entry) { e.ModuleID = 5 }},
		{"missing prompt", func(e *bank.Entry) { e.Prompt = "" }},
		{"wrong option count", func(e *bank.Entry) { e.Options = []string{"a", "b", "c"} }},
		{"duplicate options", func(e *bank.Entry) { e.Options = []string{"a", "a", "c", "d"} }},
		{"correct answer absent", func(e *bank.Entry) { e.CorrectAnswer = "zzz" }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := valid
			e.Options = append([]string(nil), valid.Options...)
			c.mutate(&e)
			body, err := json.Marshal([]bank.Entry{e})
			require.NoError(t, err)
			_, err = bank.Load(body)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	e := bank.Entry{
		ID: "m1-q01", ModuleID: 1, Prompt: "p",
		CorrectAnswer: "a", Options: []string{"a", "b", "c", "d"},
	}
	body, err := json.Marshal([]bank.Entry{e, e})
	require.NoError(t, err)
	_, err = bank.Load(body)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyCatalog(t *testing.T) {
	_, err := bank.Load([]byte(`[]`))
	assert.Error(t, err)
}
