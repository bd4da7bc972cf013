package relay

import (
	"github.com/Laisky/errors/v2"

	"github.com/songquanpeng/hamming-ci/model"
	"github.com/songquanpeng/hamming-ci/relay/adaptor"
	"github.com/songquanpeng/hamming-ci/relay/adaptor/calls"
	"github.com/songquanpeng/hamming-ci/relay/adaptor/nested"
	"github.com/songquanpeng/hamming-ci/relay/adaptor/results"
	"github.com/songquanpeng/hamming-ci/relay/adaptor/scored"
	"github.com/songquanpeng/hamming-ci/relay/schema"
)

// ErrUnknownSchema is returned for a JSON object no adaptor recognizes.
var ErrUnknownSchema = errors.New("unrecognized results payload shape")

// detectionOrder puts the shapes with the most specific markers first;
// results matches on almost anything that has a summary.
var detectionOrder = []int{schema.Nested, schema.Calls, schema.Scored, schema.Results}

func GetAdaptor(schemaType int) adaptor.Adaptor {
	switch schemaType {
	case schema.Results:
		return &results.Adaptor{}
	case schema.Calls:
		return &calls.Adaptor{}
	case schema.Nested:
		return &nested.Adaptor{}
	case schema.Scored:
		return &scored.Adaptor{}
	}
	return nil
}

// DetectSchema returns the schema type of a results payload.
func DetectSchema(raw []byte) (int, error) {
	probe, err := adaptor.NewProbe(raw)
	if err != nil {
		return 0, errors.Wrap(err, "parse results payload")
	}
	for _, schemaType := range detectionOrder {
		if GetAdaptor(schemaType).Match(probe) {
			return schemaType, nil
		}
	}
	return 0, ErrUnknownSchema
}

// DecodeResults converts any accepted results payload into the canonical model.
func DecodeResults(raw []byte) (*model.TestRunResults, int, error) {
	schemaType, err := DetectSchema(raw)
	if err != nil {
		return nil, 0, err
	}
	res, err := GetAdaptor(schemaType).ConvertResults(raw)
	if err != nil {
		return nil, schemaType, errors.Wrapf(err, "decode %s payload", schema.Name(schemaType))
	}
	return res, schemaType, nil
}
