package util

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("logs directory"), ShouldEqual, "Logs directory")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestIsTerminal(t *testing.T) {
	Convey("Given a regular file", t, func() {
		f, err := os.Create(filepath.Join(t.TempDir(), "out"))
		So(err, ShouldBeNil)
		defer f.Close()

		Convey("It is not a terminal", func() {
			So(IsTerminal(f), ShouldBeFalse)
		})
	})
}
