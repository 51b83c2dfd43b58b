package classify

import (
	"testing"

	"uiscout/internal/uitree"
)

func clickable(text string) uitree.Attributes {
	return uitree.Attributes{Text: text, Clickable: true, Enabled: true}
}

func TestClassify(t *testing.T) {
	c := New()
	tests := []struct {
		name  string
		attrs uitree.Attributes
		want  Safety
	}{
		{"plain button", clickable("Next"), Safe},
		{"submit stays safe", clickable("Submit"), Safe},
		{"delete button", clickable("Delete"), Dangerous},
		{"delete via description", uitree.Attributes{Desc: "Delete message", Clickable: true, Enabled: true}, Dangerous},
		{"delete via resource id", uitree.Attributes{ResourceID: "com.example:id/btn_delete_all", Clickable: true, Enabled: true}, Dangerous},
		{"factory reset phrase", clickable("Factory reset phone"), Dangerous},
		{"purchase", clickable("Purchase premium"), Dangerous},
		{"send money", clickable("Send $20"), Dangerous},
		{"sign out", clickable("Sign out"), Dangerous},
		{"password input", uitree.Attributes{Class: "EditText", Editable: true, Enabled: true, Password: true}, Credential},
		{"password by hint", uitree.Attributes{Text: "Password", Editable: true, Enabled: true}, Credential},
		{"login button", clickable("Log in"), Credential},
		{"otp field", uitree.Attributes{Desc: "Enter OTP", Editable: true, Enabled: true}, Credential},
		{"disabled delete is inert", uitree.Attributes{Text: "Delete", Clickable: true, Enabled: false}, Inert},
		{"static label is inert", uitree.Attributes{Text: "Delete everything?", Enabled: true}, Inert},
		{"decorative image is inert", uitree.Attributes{Class: "ImageView", Enabled: true}, Inert},
		{"scrollable list is safe", uitree.Attributes{Class: "RecyclerView", Scrollable: true, Enabled: true}, Safe},
		{"email field stays safe", uitree.Attributes{Text: "Email", Editable: true, Enabled: true}, Safe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.attrs); got != tt.want {
				t.Errorf("Classify(%+v) = %s, want %s", tt.attrs, got, tt.want)
			}
		})
	}
}

// Word-list matching must bind to whole tokens: "pin" may not fire inside
// "spinning", "exit" not inside "exited".
func TestClassifyTokenBoundaries(t *testing.T) {
	c := New()
	tests := []struct {
		text string
		want Safety
	}{
		{"Spinning wheel", Safe},
		{"Exited games", Safe},
		{"Shopping list", Safe},
		{"Reformatting guide", Safe},
		{"PIN", Credential},
		{"Exit", Dangerous},
	}
	for _, tt := range tests {
		if got := c.Classify(clickable(tt.text)); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassifyPrecedence(t *testing.T) {
	c := New()
	// Credential outranks dangerous when both match.
	got := c.Classify(clickable("Sign in or delete account"))
	if got != Credential {
		t.Errorf("mixed credential/danger = %s, want %s", got, Credential)
	}
	// Inert outranks everything.
	got = c.Classify(uitree.Attributes{Text: "Password", Editable: true, Enabled: false})
	if got != Inert {
		t.Errorf("disabled credential field = %s, want %s", got, Inert)
	}
}

func TestExtend(t *testing.T) {
	c := New()
	if got := c.Classify(clickable("Self destruct")); got != Safe {
		t.Fatalf("precondition: %s", got)
	}
	c.Extend([]string{" Self Destruct "}, []string{"magic word"})
	if got := c.Classify(clickable("Self destruct")); got != Dangerous {
		t.Errorf("extended danger term = %s, want %s", got, Dangerous)
	}
	if got := c.Classify(clickable("Enter magic word")); got != Credential {
		t.Errorf("extended credential term = %s, want %s", got, Credential)
	}
}

func TestIsCredentialScreen(t *testing.T) {
	c := New()

	login := &uitree.Static{
		Attributes: uitree.Attributes{Class: "FrameLayout"},
		Children: []*uitree.Static{
			{Attributes: uitree.Attributes{Text: "Email", Editable: true, Enabled: true}},
			{Attributes: uitree.Attributes{Editable: true, Enabled: true, Password: true}},
			{Attributes: uitree.Attributes{Text: "Log in", Clickable: true, Enabled: true}},
		},
	}
	if !c.IsCredentialScreen(login) {
		t.Error("screen with password field not detected")
	}

	// A settings screen that merely offers a "Sign out" row is not a
	// credential screen.
	settings := &uitree.Static{
		Attributes: uitree.Attributes{Class: "FrameLayout"},
		Children: []*uitree.Static{
			{Attributes: uitree.Attributes{Text: "Notifications", Clickable: true, Enabled: true}},
			{Attributes: uitree.Attributes{Text: "Sign out", Clickable: true, Enabled: true}},
		},
	}
	if c.IsCredentialScreen(settings) {
		t.Error("settings screen misdetected as credential screen")
	}

	if c.IsCredentialScreen(nil) {
		t.Error("nil root misdetected")
	}
}

func TestAutoInteractable(t *testing.T) {
	if !Safe.AutoInteractable() {
		t.Error("Safe must be auto-interactable")
	}
	for _, s := range []Safety{Dangerous, Credential, Inert} {
		if s.AutoInteractable() {
			t.Errorf("%s must not be auto-interactable", s)
		}
	}
}
