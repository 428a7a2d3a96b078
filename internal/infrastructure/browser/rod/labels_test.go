package rod

import "testing"

func TestExtractFieldLabels(t *testing.T) {
	page := `
	<html><body>
	  <form>
	    <label for="fname">First <b>Name</b></label>
	    <input id="fname" type="text">
	    <label for="state">
	      State of
	      Residence
	    </label>
	    <select id="state"></select>
	    <label>No target attribute</label>
	    <label for="">Empty target</label>
	  </form>
	</body></html>`

	labels := extractFieldLabels(page)

	if got := labels["fname"]; got != "First Name" {
		t.Errorf("fname label = %q", got)
	}
	if got := labels["state"]; got != "State of Residence" {
		t.Errorf("state label = %q (whitespace should collapse)", got)
	}
	if len(labels) != 2 {
		t.Errorf("labels = %v, want exactly 2 entries", labels)
	}
}

func TestExtractFieldLabels_NoLabels(t *testing.T) {
	labels := extractFieldLabels(`<html><body><input id="x"></body></html>`)
	if len(labels) != 0 {
		t.Errorf("labels = %v, want none", labels)
	}
}
