package annotation

// SignaturePosition places a signature block in normalized page space.
// PageNumber is 1-based.
type SignaturePosition struct {
	PageNumber int     `json:"pageNumber"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// Signature is a visual attestation block. It is a stamp, not a
// cryptographic signature.
type Signature struct {
	ID             string            `json:"id"`
	SignerName     string            `json:"signerName"`
	SignerEmail    string            `json:"signerEmail,omitempty"`
	SignDate       string            `json:"signDate"`
	SignatureImage string            `json:"signatureImage,omitempty"`
	SignatureText  string            `json:"signatureText,omitempty"`
	Position       SignaturePosition `json:"position"`
	Reason         string            `json:"reason,omitempty"`
	Location       string            `json:"location,omitempty"`
	// ImageWidth and ImageHeight cap the image as a percentage of the
	// signature box. Zero means 100.
	ImageWidth  float64 `json:"imageWidth,omitempty"`
	ImageHeight float64 `json:"imageHeight,omitempty"`
	FontSize    float64 `json:"fontSize,omitempty"`
}

// DefaultSignatureFontSize applies when a signature has no font size.
const DefaultSignatureFontSize = 10

// ImageCaps returns the width and height caps as fractions in (0,1].
func (s Signature) ImageCaps() (float64, float64) {
	return percent(s.ImageWidth), percent(s.ImageHeight)
}

func percent(v float64) float64 {
	if v <= 0 || v > 100 {
		return 1
	}
	return v / 100
}

// MetadataLines returns the text lines printed in the signature block, in
// display order, skipping empty values.
func (s Signature) MetadataLines() []string {
	var out []string
	add := func(prefix, v string) {
		if v != "" {
			out = append(out, prefix+v)
		}
	}
	add("", s.SignerName)
	add("", s.SignerEmail)
	add("Date: ", s.SignDate)
	add("Reason: ", s.Reason)
	add("Location: ", s.Location)
	return out
}
