package configurator

import "testing"

func TestParseCableDescriptorKnownFields(t *testing.T) {
	raw := "position: left; length: 2.5m; color: matte black"
	desc := ParseCableDescriptor(raw)

	if desc.Position != "left" {
		t.Fatalf("position = %q", desc.Position)
	}
	if desc.Length != "2.5m" {
		t.Fatalf("length = %q", desc.Length)
	}
	if desc.Color != "matte black" {
		t.Fatalf("color = %q", desc.Color)
	}
	if desc.Notes != "" {
		t.Fatalf("unexpected notes %q", desc.Notes)
	}
	if desc.Raw != raw {
		t.Fatal("raw text must be retained verbatim")
	}
}

func TestParseCableDescriptorNewlineSeparated(t *testing.T) {
	desc := ParseCableDescriptor("pos: center\nlen: 1m\ncolour: brass")
	if desc.Position != "center" || desc.Length != "1m" || desc.Color != "brass" {
		t.Fatalf("aliases not recognised: %+v", desc)
	}
}

func TestParseCableDescriptorFreeTextFallsIntoNotes(t *testing.T) {
	raw := "mount: ceiling; custom loop at frame; length: 3m"
	desc := ParseCableDescriptor(raw)

	if desc.Length != "3m" {
		t.Fatalf("length = %q", desc.Length)
	}
	if desc.Notes != "mount: ceiling; custom loop at frame" {
		t.Fatalf("notes = %q", desc.Notes)
	}
	if desc.Raw != raw {
		t.Fatal("raw text must be retained verbatim")
	}
}

func TestParseCableDescriptorEmpty(t *testing.T) {
	desc := ParseCableDescriptor("")
	if desc.Position != "" || desc.Length != "" || desc.Color != "" || desc.Notes != "" {
		t.Fatalf("expected empty parse, got %+v", desc)
	}
}

func TestParseCablesKeepsIndexKeys(t *testing.T) {
	parsed := ParseCables(map[string]string{
		"0": "position: left; length: 2m",
		"1": "freeform descriptor",
	})
	if len(parsed) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(parsed))
	}
	if parsed["0"].Position != "left" {
		t.Fatalf("entry 0 = %+v", parsed["0"])
	}
	if parsed["1"].Notes != "freeform descriptor" {
		t.Fatalf("entry 1 = %+v", parsed["1"])
	}
}
