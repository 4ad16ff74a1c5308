package scoring_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/storyloom/internal/domain/model"
	"github.com/okian/storyloom/internal/domain/scoring"
)

func story(texts ...string) *model.Story {
	p := model.Paragraph{}
	for _, t := range texts {
		p.Sentences = append(p.Sentences, model.Sentence{Text: t})
	}
	return &model.Story{Title: "Ship Day", Paragraphs: []model.Paragraph{p}}
}

func input() model.StoryInput {
	return model.StoryInput{
		Theme:       "friendship",
		Genre:       "adventure",
		PhonicSkill: "sh",
		Length:      4,
		GradeLevel:  model.Grade2,
	}
}

func TestScorerBands(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		s := scoring.New()

		Convey("When scores fall on band edges", func() {
			Convey("Then they take the higher label", func() {
				So(s.Assess(0.85), ShouldEqual, model.AssessmentExcellent)
				So(s.Assess(0.75), ShouldEqual, model.AssessmentGood)
				So(s.Assess(0.8), ShouldEqual, model.AssessmentGood)
				So(s.Assess(0.65), ShouldEqual, model.AssessmentAcceptable)
				So(s.Assess(0.649), ShouldEqual, model.AssessmentNeedsImprovement)
				So(s.Assess(0), ShouldEqual, model.AssessmentNeedsImprovement)
			})
		})

		Convey("When recommending use", func() {
			Convey("Then each band gets its own suggestion", func() {
				So(s.RecommendedUse(nil), ShouldEqual, "Needs revision before classroom use")
				So(s.RecommendedUse(&model.Evaluation{OverallScore: 0.6}), ShouldEqual, "Needs revision before classroom use")
				So(s.RecommendedUse(&model.Evaluation{OverallScore: 0.7}), ShouldEqual, "Suitable for phonics practice with modifications")
				So(s.RecommendedUse(&model.Evaluation{OverallScore: 0.8}), ShouldEqual, "Good for guided reading with teacher support")
				So(s.RecommendedUse(&model.Evaluation{OverallScore: 0.9}), ShouldEqual, "Excellent for independent and guided reading")
			})
		})

		Convey("When checking classroom readiness", func() {
			Convey("Then standards and score must both hold", func() {
				So(s.ClassroomReady(nil), ShouldBeFalse)
				So(s.ClassroomReady(&model.Evaluation{OverallScore: 0.9}), ShouldBeFalse)
				So(s.ClassroomReady(&model.Evaluation{OverallScore: 0.69, MeetsStandards: true}), ShouldBeFalse)
				So(s.ClassroomReady(&model.Evaluation{OverallScore: 0.7, MeetsStandards: true}), ShouldBeTrue)
			})
		})
	})

	Convey("Given a scorer with custom bands", t, func() {
		s := scoring.New(scoring.WithBands(0.9, 0.8, 0.7), scoring.WithClassroomScore(0.95))

		Convey("Then labels and readiness follow them", func() {
			So(s.Assess(0.85), ShouldEqual, model.AssessmentGood)
			So(s.Assess(0.69), ShouldEqual, model.AssessmentNeedsImprovement)
			So(s.ClassroomReady(&model.Evaluation{OverallScore: 0.9, MeetsStandards: true}), ShouldBeFalse)
		})

		Convey("And bands out of order are ignored", func() {
			s := scoring.New(scoring.WithBands(0.5, 0.8, 0.7))
			So(s.Assess(0.85), ShouldEqual, model.AssessmentExcellent)
		})
	})
}

func TestMeasures(t *testing.T) {
	Convey("Given grade validation results", t, func() {
		issues := func(n int) model.StoryValidation {
			return model.StoryValidation{Issues: make([]model.GradeIssue, n)}
		}

		Convey("Then alignment follows the issue count", func() {
			So(scoring.Alignment(model.StoryValidation{Valid: true}), ShouldEqual, "appropriate")
			So(scoring.Alignment(issues(2)), ShouldEqual, "mostly appropriate")
			So(scoring.Alignment(issues(5)), ShouldEqual, "some concerns")
			So(scoring.Alignment(issues(6)), ShouldEqual, "inappropriate")
		})
	})

	Convey("Given stories to measure", t, func() {
		Convey("When no word is complex", func() {
			s := story("The cat sat.", "The dog ran to me.")

			Convey("Then readability is the average sentence length", func() {
				So(scoring.Readability(s), ShouldEqual, 4.0)
			})
		})

		Convey("When one word in four has three syllables", func() {
			s := story("An elephant sat down.")

			Convey("Then the complex ratio is added as a percentage", func() {
				So(scoring.Readability(s), ShouldEqual, 29.0)
			})
		})

		Convey("When the story is empty", func() {
			So(scoring.Readability(&model.Story{}), ShouldEqual, 0)
		})

		Convey("Then rounding keeps the requested places", func() {
			So(scoring.Round(0.81234, 3), ShouldEqual, 0.812)
			So(scoring.Round(2.25, 1), ShouldEqual, 2.3)
		})
	})
}

func TestAnalyzeAndReport(t *testing.T) {
	Convey("Given a finished grade 2 story that scored 0.8", t, func() {
		s := story(
			"Sam has a red ship.",
			"A fish swam by the ship.",
			"Sam and the fish play.",
			"They rest in the shade.",
		)
		eval := &model.Evaluation{
			OverallScore:          0.8,
			GradeAppropriateScore: 0.82,
			PhonicsScore:          0.78,
			StoryQualityScore:     0.81,
			MeetsStandards:        true,
			EducationalStrengths:  []string{"clear plot"},
			ImprovementPriorities: []string{"more sh words"},
		}
		s.Pipeline = &model.PipelineMeta{FinalEvaluation: eval, QualityThreshold: 0.75}
		sc := scoring.New()

		Convey("When the analysis is built", func() {
			a := sc.Analyze(s, input())

			Convey("Then the local phonics count is used", func() {
				So(a.Phonics.Pattern, ShouldEqual, "sh")
				So(a.Phonics.TotalWords, ShouldEqual, 5)
				So(a.Phonics.MeetsRequirements, ShouldBeTrue)
				So(a.Phonics.EducationalValue, ShouldEqual, "unknown")
			})

			Convey("And the instructional review is filled in", func() {
				So(a.Instructional.ClassroomReady, ShouldBeTrue)
				So(a.Instructional.TeacherNotes, ShouldStartWith, `This story is designed for Grade 2 phonics instruction focusing on "sh".`)
				So(a.Instructional.ExtensionActivities, ShouldHaveLength, 5)
				So(a.Instructional.ExtensionActivities[2], ShouldEqual, "Discuss the story's theme: friendship")
				So(a.Overall.RecommendedUse, ShouldEqual, "Good for guided reading with teacher support")
				So(a.Overall.EducationalEffectiveness, ShouldEqual, 0.8)
				So(a.Overall.Strengths, ShouldResemble, []string{"clear plot"})
				So(a.Overall.Concerns, ShouldBeEmpty)
			})

			Convey("And the report is GOOD", func() {
				r := sc.Report(s, a, input(), 0.75)
				So(r.OverallAssessment, ShouldEqual, model.AssessmentGood)
				So(r.OverallScore, ShouldEqual, 0.8)
				So(r.MeetsThreshold, ShouldBeTrue)
				So(r.Summary, ShouldResemble, model.ReportSummary{
					TotalSentences:      4,
					PhonicsWords:        5,
					PhonicsPattern:      "sh",
					ReadyForInstruction: true,
				})
				So(r.Recommendations, ShouldResemble, []string{"more sh words"})
				So(r.CriticalIssues, ShouldNotBeNil)
				So(r.TeacherGuidance, ShouldEqual, a.Instructional.TeacherNotes)
				So(r.QualityBreakdown.InstructionalReadiness, ShouldEqual, 0.8)
				So(r.QualityBreakdown.PhonicsIntegration, ShouldEqual, 0.78)
			})
		})

		Convey("When the evaluator reported its own phonics view", func() {
			eval.PhonicsAnalysis = &model.PhonicsAssessment{
				TargetPattern:            "sh",
				WordsFound:               []string{"ship", "fish"},
				WordCount:                2,
				Integration:              "forced",
				EducationalEffectiveness: "weak",
			}
			a := sc.Analyze(s, input())

			Convey("Then it overrides the local count", func() {
				So(a.Phonics.TotalWords, ShouldEqual, 2)
				So(a.Phonics.UniqueWords, ShouldResemble, []string{"ship", "fish"})
				So(a.Phonics.Integration, ShouldEqual, "forced")
				So(a.Phonics.Effectiveness, ShouldEqual, "forced")
				So(a.Phonics.MeetsRequirements, ShouldBeFalse)
				So(a.Phonics.EducationalValue, ShouldEqual, "weak")
			})
		})

		Convey("When the run ended without a verdict", func() {
			s.Pipeline.FinalEvaluation = nil
			a := sc.Analyze(s, input())
			r := sc.Report(s, a, input(), 0.75)

			Convey("Then the report needs improvement", func() {
				So(a.Instructional.ClassroomReady, ShouldBeFalse)
				So(a.Overall.RecommendedUse, ShouldEqual, "Needs revision before classroom use")
				So(r.OverallAssessment, ShouldEqual, model.AssessmentNeedsImprovement)
				So(r.OverallScore, ShouldEqual, 0)
				So(r.MeetsThreshold, ShouldBeFalse)
			})
		})
	})
}
