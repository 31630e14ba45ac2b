package form

import "context"

// ResponseFinder is the slice of Store the eligibility guard needs.
type ResponseFinder interface {
	FindResponseByRespondent(ctx context.Context, formID, respondentKey string) (*Response, error)
}

// CheckEligibility decides whether the identified respondent may submit
// another attempt. Multi-attempt forms and anonymous respondents are always
// allowed. This read-side check is advisory: the storage uniqueness constraint
// on (form, respondent) is what closes the race between two concurrent
// attempts (see Store.InsertResponse).
func CheckEligibility(ctx context.Context, finder ResponseFinder, f Form, respondentKey string) error {
	if f.Settings.AllowMultipleAttempts || respondentKey == "" {
		return nil
	}
	prior, err := finder.FindResponseByRespondent(ctx, f.ID, respondentKey)
	if err != nil {
		return err
	}
	if prior != nil {
		return ErrAttemptExhausted
	}
	return nil
}
