package cloud

import (
	"context"
	"errors"
	"fmt"
	"mime"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureService transcribes through an Azure OpenAI audio deployment.
type AzureService struct {
	client       *azopenai.Client
	deploymentID string
}

var _ Service = (*AzureService)(nil)

// NewAzureService creates a client for endpoint using an API key.
func NewAzureService(endpoint, apiKey, deploymentID string) (*AzureService, error) {
	if endpoint == "" || apiKey == "" {
		return nil, errors.New("azure endpoint and api key are required")
	}
	keyCredential := azcore.NewKeyCredential(apiKey)
	client, err := azopenai.NewClientWithKeyCredential(endpoint, keyCredential, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure OpenAI client: %w", err)
	}
	return &AzureService{client: client, deploymentID: deploymentID}, nil
}

// Transcribe uploads the recording and returns the transcript text.
func (s *AzureService) Transcribe(ctx context.Context, req Request) (string, error) {
	resp, err := s.client.GetAudioTranscription(ctx, azopenai.AudioTranscriptionOptions{
		DeploymentName: to.Ptr(s.deploymentID),
		File:           req.Audio,
		Filename:       to.Ptr(filenameFor(req.MimeType)),
		Language:       to.Ptr(req.Language),
		Prompt:         to.Ptr(req.Instruction),
		ResponseFormat: to.Ptr(azopenai.AudioTranscriptionFormatJSON),
	}, nil)
	if err != nil {
		return "", err
	}
	if resp.Text == nil {
		return "", nil
	}
	return *resp.Text, nil
}

// filenameFor picks an upload name whose extension matches the payload, which
// the service uses to detect the container.
func filenameFor(mimeType string) string {
	base, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		base = mimeType
	}
	switch base {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return "dictation.wav"
	case "audio/ogg":
		return "dictation.ogg"
	case "audio/mpeg":
		return "dictation.mp3"
	case "audio/mp4", "audio/m4a":
		return "dictation.m4a"
	default:
		return "dictation.webm"
	}
}
