package score

// Calculate runs the scoring pipeline for a single request:
// sessions -> active days -> {metadata, chart} -> breakdown -> explanations.
//
// The reference instant is never taken from the process clock; a zero ReferenceDate is
// rejected with ErrMissingReferenceDate. Only sessions whose civil date lies within the
// Window days ending at the reference date take part in scoring.
//
// Errors:
//   - *InvalidTimezoneError (ErrInvalidTimezone) for an unknown zone name;
//   - *InvalidSessionError (ErrInvalidSession) for a session without a timestamp.
//
// Calculate is safe for concurrent use and deterministic: the same request, with the
// sessions in any order, always yields an identical result.
func Calculate(req Request) (*ConsistencyScore, error) {
	if req.ReferenceDate.IsZero() {
		return nil, ErrMissingReferenceDate
	}

	loc, err := LoadLocation(req.Timezone)
	if err != nil {
		return nil, err
	}
	reference := CivilDateOf(req.ReferenceDate, loc)

	days, err := Bucketize(withinWindow(req.Sessions, reference, loc), loc)
	if err != nil {
		return nil, err
	}

	meta := CalculateMetadata(days, reference)
	chart := ProjectChart(days, reference)
	breakdown := Compose(days, meta, reference)

	return &ConsistencyScore{
		Score:        Total(breakdown),
		Explanations: Explain(meta, breakdown),
		ChartData:    chart,
		Metadata:     meta,
		Breakdown:    breakdown,
	}, nil
}
