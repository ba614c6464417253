package pagexml

import (
	"strings"
	"testing"
)

const samplePage = `<?xml version="1.0" encoding="UTF-8"?>
<PcGts xmlns="http://schema.primaresearch.org/PAGE/gts/pagecontent/2013-07-15">
  <Metadata><Creator>Transkribus</Creator></Metadata>
  <Page imageFilename="0001.jpg" imageWidth="1700" imageHeight="2200">
    <TextRegion id="r1" custom="readingOrder {index:0;} type:header;">
      <Coords points="0,0 10,10"/>
      <TextLine id="r1l1">
        <TextEquiv><Unicode>Chapter One</Unicode></TextEquiv>
      </TextLine>
      <TextEquiv><Unicode>Chapter One</Unicode></TextEquiv>
    </TextRegion>
    <TextRegion id="r2" custom="readingOrder {index:1;} type:paragraph;">
      <TextLine id="r2l1">
        <TextEquiv><Unicode>It was a dark night.</Unicode></TextEquiv>
      </TextLine>
      <TextLine id="r2l2">
        <TextEquiv><Unicode>The rain fell hard.</Unicode></TextEquiv>
      </TextLine>
      <TextEquiv><Unicode>It was a dark night.
The rain fell hard.</Unicode></TextEquiv>
    </TextRegion>
    <TextRegion id="r3" custom="readingOrder {index:2;}">
      <TextLine id="r3l1">
        <TextEquiv><Unicode>42</Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
    <TextRegion id="r4" custom="readingOrder {index:3;} type:paragraph;">
      <TextLine id="r4l1">
        <TextEquiv><Unicode></Unicode></TextEquiv>
      </TextLine>
    </TextRegion>
  </Page>
</PcGts>`

func TestParse(t *testing.T) {
	page, err := Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	regions := page.Regions()
	if len(regions) != 3 {
		t.Fatalf("regions = %d, want 3 (empty region r4 dropped)", len(regions))
	}

	if regions[0].ID != "r1" || regions[0].Type != "header" {
		t.Errorf("region 0 = %+v", regions[0])
	}
	if len(regions[0].Lines) != 1 || regions[0].Lines[0] != "Chapter One" {
		t.Errorf("region 0 lines = %v", regions[0].Lines)
	}

	// The region-level TextEquiv holds the joined text and must not leak
	// into the line list.
	if len(regions[1].Lines) != 2 {
		t.Fatalf("region 1 lines = %v", regions[1].Lines)
	}
	if regions[1].Lines[0] != "It was a dark night." || regions[1].Lines[1] != "The rain fell hard." {
		t.Errorf("region 1 lines = %v", regions[1].Lines)
	}

	// A custom attribute without a type label yields an untyped region.
	if regions[2].ID != "r3" || regions[2].Type != "" {
		t.Errorf("region 2 = %+v", regions[2])
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("not xml at all <")); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegions_TypeFilter(t *testing.T) {
	page, err := Parse([]byte(samplePage))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	t.Run("single type", func(t *testing.T) {
		regions := page.Regions("paragraph")
		if len(regions) != 1 || regions[0].ID != "r2" {
			t.Errorf("regions = %+v", regions)
		}
	})

	t.Run("multiple types", func(t *testing.T) {
		regions := page.Regions("header", "paragraph")
		if len(regions) != 2 {
			t.Errorf("regions = %+v", regions)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if regions := page.Regions("marginalia"); len(regions) != 0 {
			t.Errorf("regions = %+v", regions)
		}
	})
}

func TestReplaceInText(t *testing.T) {
	t.Run("replaces only inside text content", func(t *testing.T) {
		doc := `<TextLine id="l1"><TextEquiv><Unicode>ſchön ſehr</Unicode></TextEquiv></TextLine>`
		edited, n := ReplaceInText(doc, "ſ", "s")
		if n != 2 {
			t.Errorf("replacements = %d, want 2", n)
		}
		if !strings.Contains(edited, "<Unicode>schön sehr</Unicode>") {
			t.Errorf("edited = %q", edited)
		}
	})

	t.Run("markup is untouched", func(t *testing.T) {
		// "n" appears in the Unicode tag name and the id attribute; only
		// the text content may change.
		doc := `<TextLine id="nn"><TextEquiv><Unicode>nine</Unicode></TextEquiv></TextLine>`
		edited, n := ReplaceInText(doc, "n", "m")
		if n != 2 {
			t.Errorf("replacements = %d, want 2", n)
		}
		if !strings.Contains(edited, "<Unicode>mime</Unicode>") {
			t.Errorf("edited = %q", edited)
		}
		if !strings.Contains(edited, `id="nn"`) {
			t.Errorf("attribute was modified: %q", edited)
		}
	})

	t.Run("no match", func(t *testing.T) {
		doc := `<Unicode>abc</Unicode>`
		edited, n := ReplaceInText(doc, "x", "y")
		if n != 0 || edited != doc {
			t.Errorf("edited = %q, n = %d", edited, n)
		}
	})

	t.Run("empty needle", func(t *testing.T) {
		doc := `<Unicode>abc</Unicode>`
		if _, n := ReplaceInText(doc, "", "y"); n != 0 {
			t.Errorf("replacements = %d, want 0", n)
		}
	})
}
