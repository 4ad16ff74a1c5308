package grade_test

import (
	"testing"

	"github.com/okian/storyloom/internal/domain/grade"
	"github.com/okian/storyloom/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEstimateSyllables(t *testing.T) {
	Convey("Given common words", t, func() {
		So(grade.EstimateSyllables("the"), ShouldEqual, 1)
		So(grade.EstimateSyllables("elephant"), ShouldEqual, 3)
		So(grade.EstimateSyllables("time"), ShouldEqual, 1)
		So(grade.EstimateSyllables("table"), ShouldEqual, 2)
		So(grade.EstimateSyllables("Fishing!"), ShouldEqual, 2)
		So(grade.EstimateSyllables("1234"), ShouldEqual, 1)
		So(grade.EstimateSyllables("butterfly"), ShouldEqual, 3)
	})
}

func TestFor(t *testing.T) {
	Convey("Given grade lookups", t, func() {
		So(grade.For(model.GradeK).MaxWords, ShouldEqual, 6)
		So(grade.For(model.Grade6).MaxSyllables, ShouldEqual, 5)
		So(grade.For(model.Grade3).LexileRange, ShouldEqual, "650L-820L")

		Convey("Then unknown grades fall back to grade 1", func() {
			So(grade.For("9"), ShouldResemble, grade.For(model.Grade1))
		})
	})
}

func TestValidateSentence(t *testing.T) {
	Convey("Given kindergarten limits", t, func() {
		Convey("When a sentence fits", func() {
			v := grade.ValidateSentence("The cat is big.", model.GradeK)
			So(v.Valid, ShouldBeTrue)
			So(v.WordCount, ShouldEqual, 4)
			So(v.Issues, ShouldBeEmpty)
		})

		Convey("When a sentence is long and uses heavy words", func() {
			v := grade.ValidateSentence("The enormous elephant went slowly toward the river bank.", model.GradeK)

			Convey("Then both problems are reported", func() {
				So(v.Valid, ShouldBeFalse)
				So(v.Issues[0], ShouldEqual, "Too many words: 9 > 6")
				So(v.ComplexWords, ShouldResemble, []string{"enormous", "elephant"})
				So(v.Issues[1], ShouldEqual, "Complex words: enormous, elephant exceed 2 syllables")
			})
		})

		Convey("When a sentence is too short", func() {
			v := grade.ValidateSentence("Go.", model.GradeK)
			So(v.Issues, ShouldResemble, []string{"Too few words: 1 < 3"})
		})
	})
}

func TestValidateStory(t *testing.T) {
	Convey("Given a story with one failing sentence", t, func() {
		story := &model.Story{Paragraphs: []model.Paragraph{
			{Sentences: []model.Sentence{{Text: "The fish swims in the pond."}, {Text: "Splash!"}}},
			{Sentences: []model.Sentence{{Text: "The shell is on the sand."}}},
		}}

		v := grade.ValidateStory(story, model.Grade2)

		Convey("Then the issue is located and stats are aggregated", func() {
			So(v.Valid, ShouldBeFalse)
			So(len(v.Issues), ShouldEqual, 1)
			So(v.Issues[0].Location, ShouldEqual, "Paragraph 1, Sentence 2")
			So(v.Stats.TotalSentences, ShouldEqual, 3)
			So(v.Stats.ValidSentences, ShouldEqual, 2)
			So(v.Stats.AverageWordCount, ShouldEqual, 4.3)
			So(v.Stats.PassRate, ShouldEqual, 67)
			So(v.Stats.LexileRange, ShouldEqual, "400L-650L")
		})
	})

	Convey("Given an empty story", t, func() {
		v := grade.ValidateStory(&model.Story{}, model.Grade1)
		So(v.Valid, ShouldBeFalse)
		So(v.Issues[0].Issues, ShouldResemble, []string{"No paragraphs found"})
	})
}

func TestIsStructureAppropriate(t *testing.T) {
	Convey("Given grade syntax rules", t, func() {
		So(grade.IsStructureAppropriate("The dog runs.", model.GradeK), ShouldBeTrue)
		So(grade.IsStructureAppropriate("The dog runs and jumps.", model.GradeK), ShouldBeFalse)
		So(grade.IsStructureAppropriate("We read and play games.", model.Grade1), ShouldBeTrue)
		So(grade.IsStructureAppropriate("We play but they read.", model.Grade1), ShouldBeFalse)
		So(grade.IsStructureAppropriate("We play when it rains.", model.Grade2), ShouldBeFalse)
		So(grade.IsStructureAppropriate("A gift for the shift.", model.Grade2), ShouldBeTrue)
		So(grade.IsStructureAppropriate("We play when it rains.", model.Grade3), ShouldBeTrue)
	})
}

func TestDescribe(t *testing.T) {
	Convey("Given a grade summary", t, func() {
		s := grade.Describe(model.GradeK)
		So(s.DisplayName, ShouldEqual, "Kindergarten")
		So(s.WordRange, ShouldEqual, "3-6 words per sentence")
		So(s.SyllableLimit, ShouldEqual, "Maximum 2 syllables per word")
		So(s.SentenceTypes, ShouldEqual, "SVO, SV")
		So(s.KeyFocus, ShouldEqual, "Basic phonics, sight words, simple sentence structure")
		So(len(grade.Examples(model.Grade4)), ShouldEqual, 4)
		So(grade.KeyFocus("x"), ShouldEqual, "General literacy development")
	})
}
