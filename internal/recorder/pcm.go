package recorder

import (
	"fmt"
	"strings"

	pionmedia "github.com/pion/webrtc/v3/pkg/media"
)

// MimePCM is the MIME type produced by the built-in PCM encoder.
const MimePCM = "audio/l16"

// PCMFactory encodes audio as raw little-endian PCM. It supports none of
// the compressed formats, so negotiation falls through to it as the
// default. Useful with the synthetic provider and in tests.
type PCMFactory struct{}

func (PCMFactory) Supported(mimeType string) bool {
	return strings.EqualFold(mimeType, MimePCM)
}

func (PCMFactory) New(mimeType string) (Encoder, error) {
	if mimeType != "" && !strings.EqualFold(mimeType, MimePCM) {
		return nil, fmt.Errorf("pcm encoder: unsupported mime type %q", mimeType)
	}
	return pcmEncoder{}, nil
}

type pcmEncoder struct{}

func (pcmEncoder) MimeType() string { return MimePCM }

func (pcmEncoder) Encode(samples []pionmedia.Sample) ([]byte, error) {
	var out []byte
	for _, s := range samples {
		out = append(out, s.Data...)
	}
	return out, nil
}
