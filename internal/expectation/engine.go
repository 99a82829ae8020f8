package expectation

import (
	"strings"

	"github.com/kreciklabs/krecik/internal/check"
	"github.com/kreciklabs/krecik/internal/story"
)

// EvaluatePage converts one Page and its raw result into the Stories the
// Orchestrator will concatenate into the run's History. Emission order:
// content stories (in the order their expectations appear), then length,
// then HTTP code, then address — matching the original checker's emission
// sequence so downstream consumers relying on history order don't break.
func EvaluatePage(p check.Page, raw RawResult) story.Stories {
	var out story.Stories

	for _, exp := range p.Expectations {
		switch exp.Kind {
		case check.ValidContent:
			out = append(out, evalContent(p.URL, exp, raw))
		case check.ValidNoContent:
			out = append(out, story.Success(story.EmptyContent(p.URL)))
		}
	}

	out = append(out, evalLength(p.URL, check.FirstLengthExpectation(p.Expectations), raw))
	out = append(out, evalCode(p.URL, check.FirstCodeExpectation(p.Expectations), raw))
	out = append(out, evalAddress(p.URL, check.FirstAddressExpectation(p.Expectations), raw))

	return out
}

func evalContent(url string, exp check.PageExpectation, raw RawResult) story.Story {
	if strings.Contains(string(raw.Body), exp.Content) {
		return story.Success(story.Content(url, exp.Content))
	}
	return story.Error(story.ContentInvalid(url, exp.Content))
}

func evalLength(url string, exp check.PageExpectation, raw RawResult) story.Story {
	switch exp.Kind {
	case check.ValidNoLength:
		return story.Success(story.NoContentLength(url))
	case check.ValidLength:
		got := uint64(len(raw.Body))
		if got >= exp.Length {
			return story.Success(story.ContentLength(url, got))
		}
		return story.Error(story.ContentLengthInvalid(url, got, exp.Length))
	default:
		return story.Error(story.UnmatchedValidationCase(url, "unhandled length expectation: "+exp.String()))
	}
}

func evalCode(url string, exp check.PageExpectation, raw RawResult) story.Story {
	if exp.Kind != check.ValidCode {
		return story.Error(story.UnmatchedValidationCase(url, "unhandled code expectation: "+exp.String()))
	}

	want := int(exp.Code)
	switch {
	case raw.Code == want:
		return story.Success(story.HTTPCode(url, want))
	case raw.Code > 0:
		return story.Error(story.HTTPCodeInvalid(url, raw.Code, want))
	case raw.OSErrno != 0:
		return story.Minor(story.OSError(url, raw.ProtoError))
	default:
		return story.Error(story.HTTPConnectionFailed(url, raw.ProtoError == "OPERATION_TIMEDOUT"))
	}
}

func evalAddress(url string, exp check.PageExpectation, raw RawResult) story.Story {
	switch exp.Kind {
	case check.ValidNoAddress:
		return story.Success(story.Address(url, url))
	case check.ValidAddress:
		if strings.Contains(raw.EffectiveURL, exp.Address) {
			return story.Success(story.Address(url, raw.EffectiveURL))
		}
		return story.Error(story.AddressInvalid(url, raw.EffectiveURL, exp.Address))
	default:
		return story.Error(story.UnmatchedValidationCase(url, "unhandled address expectation: "+exp.String()))
	}
}
