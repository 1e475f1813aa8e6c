package index

import (
	"reflect"
	"testing"
)

func TestExtractMentions(t *testing.T) {
	body := "# Auth Overview\n" +
		"Tags: auth, security\n\n" +
		"The login flow lives in `src/auth.py` and is configured by\n" +
		"config/settings.yml at startup. See task #12 and #12 again, plus #40.\n" +
		"The `authenticate` function does the heavy lifting.\n"

	m := extractMentions(body, "fallback", true)

	if m.Title != "Auth Overview" {
		t.Errorf("title = %q", m.Title)
	}
	if !reflect.DeepEqual(m.Tags, []string{"auth", "security"}) {
		t.Errorf("tags = %v", m.Tags)
	}
	if !reflect.DeepEqual(m.Files, []string{"src/auth.py", "config/settings.yml"}) {
		t.Errorf("files = %v", m.Files)
	}
	if !reflect.DeepEqual(m.Tasks, []int64{12, 40}) {
		t.Errorf("tasks = %v", m.Tasks)
	}
	if !reflect.DeepEqual(m.Idents, []string{"authenticate"}) {
		t.Errorf("idents = %v", m.Idents)
	}
}

func TestExtractMentionsFallbackTitle(t *testing.T) {
	m := extractMentions("plain body, no heading", "getting-started", false)
	if m.Title != "getting-started" {
		t.Errorf("title = %q", m.Title)
	}
	if m.Idents != nil {
		t.Errorf("idents collected without withIdents: %v", m.Idents)
	}
}
