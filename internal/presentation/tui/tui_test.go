package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/wizvis/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusMarkdown(t *testing.T) {
	md := StatusMarkdown(Status{
		Name:    "door",
		Source:  "door.scxml",
		Binding: "dm",
		Active: []domain.ActiveStateView{{
			ID: "closed",
			Transitions: []domain.TransitionView{
				{Transition: domain.Transition{Event: "open", Condition: "dm.unlocked", Target: "opened"}},
				{Transition: domain.Transition{Event: "lock", Target: "locked"}, Enabled: true},
			},
		}},
		Data: []domain.DataItem{{Name: "pipe", Value: "a|b"}},
	})

	assert.Contains(t, md, "# door\n")
	assert.Contains(t, md, "- **closed**\n")
	assert.Contains(t, md, "  - [ ] open [dm.unlocked] -> opened\n")
	assert.Contains(t, md, "  - [x] lock -> locked\n")
	assert.Contains(t, md, "| pipe | a\\|b |\n")
}

func TestStatusMarkdown_Empty(t *testing.T) {
	md := StatusMarkdown(Status{})
	assert.Contains(t, md, "# (unnamed)")
	assert.Contains(t, md, "_none_")
	assert.NotContains(t, md, "## Data")
}

func TestTransitionText(t *testing.T) {
	assert.Equal(t, "(eventless) [x] -> b", TransitionText(domain.Transition{Condition: "x", Target: "b"}))
	assert.Equal(t, "go", TransitionText(domain.Transition{Event: "go"}))
}

func TestPlainRenderer(t *testing.T) {
	out, err := NewRenderer(true)("# title")
	assert.NoError(t, err)
	assert.Equal(t, "# title", out)
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
