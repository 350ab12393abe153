package parser

import (
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func frag(left, right float64, text string) Fragment {
	return Fragment{Left: left, Right: right, Text: text}
}

func line(y float64, frags ...Fragment) Line {
	for i := range frags {
		frags[i].Y = y
	}
	return Line{Y: y, Fragments: frags}
}

// textLine is a single full-width fragment line.
func textLine(y float64, text string) Line {
	return line(y, frag(10, 560, text))
}

func ownerRow(y float64, transfer, name, idType, id, share, reg string) Line {
	var frags []Fragment
	add := func(l, r float64, s string) {
		if s != "" {
			frags = append(frags, frag(l, r, s))
		}
	}
	add(10, 100, reg)
	add(110, 160, share)
	add(170, 240, id)
	add(250, 310, idType)
	add(330, 440, name)
	add(450, 560, transfer)
	return line(y, frags...)
}

func areaHeader(y float64) Line {
	return line(y, frag(20, 100, "החלק ברכוש המשותף"), frag(300, 400, "תיאור קומה"), frag(515, 560, `שטח במ"ר`))
}

func areaValues(y float64, shared, floor, area string) Line {
	return line(y, frag(20, 100, shared), frag(300, 400, floor), frag(515, 560, area))
}

// heading places a section title at the right edge of the page, where the
// extract prints it.
func heading(y float64, text string) Line {
	return line(y, frag(505, 560, text))
}
