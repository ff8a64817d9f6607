package core

import "strings"

// mediaTypeAliases maps normalized spreadsheet values to canonical media types.
var mediaTypeAliases = map[string]MediaType{
	"imagem":    MediaImage,
	"imagens":   MediaImage,
	"image":     MediaImage,
	"foto":      MediaImage,
	"photo":     MediaImage,
	"video":     MediaVideo,
	"reels":     MediaVideo,
	"reel":      MediaVideo,
	"carrossel": MediaCarousel,
	"carousel":  MediaCarousel,
	"album":     MediaCarousel,
	"texto":     MediaText,
	"text":      MediaText,
	"artigo":    MediaText,
	"article":   MediaText,
}

// NormalizeMediaType maps free text to a canonical media type.
// Unknown or blank input returns false.
func NormalizeMediaType(raw string) (MediaType, bool) {
	mt, ok := mediaTypeAliases[NormalizeHeader(raw)]
	return mt, ok
}

// NormalizeResponsibility returns ResponsibilityClient when the value
// mentions the client ("Cliente", "client side"), otherwise ResponsibilityAgency.
// Agency is the documented default for blank or unrecognized input.
func NormalizeResponsibility(raw string) Responsibility {
	if strings.Contains(NormalizeHeader(raw), "client") {
		return ResponsibilityClient
	}
	return ResponsibilityAgency
}
