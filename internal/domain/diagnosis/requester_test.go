package diagnosis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainimage "plant-diagnosis-server/internal/domain/image"
	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/errors"
	platformtesting "plant-diagnosis-server/internal/platform/testing"
)

var tinyGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

type fakeProvider struct {
	reply  string
	err    error
	prompt string
	img    *domainimage.Output
}

func (f *fakeProvider) generate(ctx context.Context, prompt string, img *domainimage.Output) (string, error) {
	f.prompt = prompt
	f.img = img
	return f.reply, f.err
}

func newTestRequester(t *testing.T, fake *fakeProvider) *Requester {
	t.Helper()

	logger := platformtesting.SetupTestLogger(t)
	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: &config.SecurityConfig{MaxFileSize: 1024 * 1024},
		Logger:   logger,
	})
	require.NoError(t, err)

	requester, err := NewRequester(config.VisionConfig{
		Type:      "openai",
		ModelName: "test-model",
		APIKey:    "test-key",
	}, pipeline, logger)
	require.NoError(t, err)

	requester.provider = fake
	return requester
}

func TestDiagnoseStripsFences(t *testing.T) {
	body := `{"diagnosis":{"identified_problem":"Powdery mildew","severity":"Mild","symptoms_observed":["white powder"],"possible_causes":["humidity"]},"recommendations":{"immediate_actions":[],"long_term_care":[],"prevention_tips":[]},"disclaimer":""}`
	fake := &fakeProvider{reply: "```json\n" + body + "\n```"}
	requester := newTestRequester(t, fake)

	result, err := requester.Diagnose(context.Background(), tinyGIF, "white spots on leaves")
	require.NoError(t, err)
	assert.Equal(t, body, result)
}

func TestDiagnoseReturnsReplyVerbatim(t *testing.T) {
	// Interior formatting and key order must survive untouched.
	body := "{\n  \"disclaimer\": \"not professional advice\",\n  \"diagnosis\": {}\n}"
	fake := &fakeProvider{reply: body}
	requester := newTestRequester(t, fake)

	result, err := requester.Diagnose(context.Background(), tinyGIF, "")
	require.NoError(t, err)
	assert.Equal(t, body, result)
}

func TestDiagnoseComposesPromptWithCaption(t *testing.T) {
	fake := &fakeProvider{reply: "{}"}
	requester := newTestRequester(t, fake)

	_, err := requester.Diagnose(context.Background(), tinyGIF, "yellow spots on tomato leaf")
	require.NoError(t, err)

	assert.Contains(t, fake.prompt, "expert botanist")
	assert.Contains(t, fake.prompt, "User's description: yellow spots on tomato leaf")
	require.NotNil(t, fake.img)
	assert.Equal(t, "gif", fake.img.Format)
	assert.NotEmpty(t, fake.img.Base64)
}

func TestDiagnoseInvalidJSON(t *testing.T) {
	fake := &fakeProvider{reply: "```json\nI am sorry, I cannot diagnose this plant.\n```"}
	requester := newTestRequester(t, fake)

	_, err := requester.Diagnose(context.Background(), tinyGIF, "")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestDiagnoseProviderError(t *testing.T) {
	fake := &fakeProvider{err: assert.AnError}
	requester := newTestRequester(t, fake)

	_, err := requester.Diagnose(context.Background(), tinyGIF, "")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindVision))
}

func TestDiagnoseRejectsNonImagePayload(t *testing.T) {
	fake := &fakeProvider{reply: "{}"}
	requester := newTestRequester(t, fake)

	_, err := requester.Diagnose(context.Background(), []byte("not an image"), "")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindVision))
}

func TestNewRequesterValidation(t *testing.T) {
	logger := platformtesting.SetupTestLogger(t)
	pipeline, err := domainimage.NewPipeline(domainimage.Options{
		Security: &config.SecurityConfig{},
		Logger:   logger,
	})
	require.NoError(t, err)

	_, err = NewRequester(config.VisionConfig{Type: "openai"}, pipeline, logger)
	assert.Error(t, err, "openai without API key must fail")

	_, err = NewRequester(config.VisionConfig{Type: "carrier-pigeon"}, pipeline, logger)
	assert.Error(t, err)

	ollama, err := NewRequester(config.VisionConfig{Type: "ollama", ModelName: "llava"}, pipeline, logger)
	require.NoError(t, err)
	assert.NotNil(t, ollama)
}

func TestParsePayload(t *testing.T) {
	text := `{
		"diagnosis": {
			"title": "Diagnosis Summary",
			"identified_problem": "Septoria leaf spot",
			"severity": "Moderate",
			"symptoms_observed": ["small circular spots"],
			"possible_causes": ["fungal infection"]
		},
		"recommendations": {
			"title": "Recommended Actions",
			"immediate_actions": ["remove affected leaves"],
			"long_term_care": ["water at soil level"],
			"prevention_tips": ["rotate crops"]
		},
		"disclaimer": "Consult a local expert for severe cases."
	}`

	payload, err := ParsePayload(text)
	require.NoError(t, err)
	assert.Equal(t, "Septoria leaf spot", payload.Diagnosis.IdentifiedProblem)
	assert.Equal(t, SeverityModerate, payload.Diagnosis.Severity)
	assert.Len(t, payload.Recommendations.ImmediateActions, 1)

	_, err = ParsePayload("not json")
	assert.Error(t, err)
}
