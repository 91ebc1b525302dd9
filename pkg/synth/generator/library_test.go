package generator

import "testing"

func TestDefaultLibrarySize(t *testing.T) {
	lib := DefaultLibrary()
	if got, want := lib.Size(), 15; got != want {
		t.Errorf("DefaultLibrary size = %d, want %d", got, want)
	}
}

func TestDefaultLibraryTemplateArities(t *testing.T) {
	lib := DefaultLibrary()
	for i := 0; i < lib.Size(); i++ {
		tmpl := lib.TemplateFor(i)
		if tmpl.InputCount() == 0 {
			t.Errorf("component %d has zero inputs", i)
		}
	}
}

func TestWithComponentsNarrowsLibrary(t *testing.T) {
	lib := WithComponents(map[string]int{"and": 2, "xor": 1})
	if got, want := lib.Size(), 3; got != want {
		t.Fatalf("WithComponents size = %d, want %d", got, want)
	}
	for i := 0; i < lib.Size(); i++ {
		tmpl := lib.TemplateFor(i)
		if tmpl.InputCount() != 2 {
			t.Errorf("component %d should be a two-input gate", i)
		}
	}
}

func TestWithComponentsEmpty(t *testing.T) {
	lib := WithComponents(nil)
	if lib.Size() != 0 {
		t.Errorf("WithComponents(nil) size = %d, want 0", lib.Size())
	}
}
