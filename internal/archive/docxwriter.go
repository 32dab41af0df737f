package archive

import (
	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

// transcriptToDocx writes a titled transcript document: the source name as
// heading, the processing time in italics, then the text.
func transcriptToDocx(title, when, text, outputPath string) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return err
	}

	addStyledRun(doc.AddParagraph(""), title, true, 16)
	doc.AddParagraph("").AddText(when).Font(fontName).Size(fontSize - 2).Color("555555").Italic(true)

	if text != "" {
		addStyledRun(doc.AddParagraph(""), text, false, fontSize)
	}

	return doc.SaveTo(outputPath)
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}
