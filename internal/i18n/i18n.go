// Package i18n renders user-facing messages in French or English.
package i18n

import (
	"context"
	"errors"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/ingest"
)

// Message keys, in English.
const (
	MsgNoImages          = "At least one photo is required"
	MsgUpstreamStatus    = "The analysis service failed (status %d)"
	MsgUpstream          = "The analysis service could not be reached"
	MsgTimeout           = "The analysis service did not answer in time"
	MsgUnparseable       = "The analysis result could not be read"
	MsgNotFound          = "Prestation not found"
	MsgInvalidTransition = "This status change is not allowed"
	MsgInvalidFields     = "The prestation is invalid"
	MsgBadImage          = "Unsupported or oversized photo"
	MsgGeneric           = "An error occurred"
	MsgExtracted         = "%d prestations extracted"
	MsgSkipped           = "%d rows skipped"
)

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

func init() {
	for key, fr := range map[string]string{
		MsgNoImages:          "Au moins une photo est requise",
		MsgUpstreamStatus:    "Erreur lors de l'appel au service d'analyse (statut %d)",
		MsgUpstream:          "Le service d'analyse est injoignable",
		MsgTimeout:           "Le service d'analyse n'a pas répondu à temps",
		MsgUnparseable:       "La réponse de l'analyse n'a pas pu être interprétée",
		MsgNotFound:          "Prestation introuvable",
		MsgInvalidTransition: "Ce changement de statut n'est pas autorisé",
		MsgInvalidFields:     "La prestation est invalide",
		MsgBadImage:          "Photo non prise en charge ou trop volumineuse",
		MsgGeneric:           "Une erreur est survenue",
	} {
		_ = message.SetString(language.French, key, fr)
		_ = message.SetString(language.English, key, key)
	}

	_ = message.Set(language.French, MsgExtracted,
		plural.Selectf(1, "%d",
			"=0", "Aucune prestation extraite",
			"one", "%d prestation extraite",
			"other", "%d prestations extraites"))
	_ = message.Set(language.English, MsgExtracted,
		plural.Selectf(1, "%d",
			"=0", "No prestations extracted",
			"one", "%d prestation extracted",
			"other", "%d prestations extracted"))
	_ = message.Set(language.French, MsgSkipped,
		plural.Selectf(1, "%d",
			"one", "%d ligne ignorée",
			"other", "%d lignes ignorées"))
	_ = message.Set(language.English, MsgSkipped,
		plural.Selectf(1, "%d",
			"one", "%d row skipped",
			"other", "%d rows skipped"))
}

// Match picks French or English from an Accept-Language header. French wins
// when nothing matches.
func Match(acceptLanguage string) language.Tag {
	_, index := language.MatchStrings(matcher, acceptLanguage)
	return supported[index]
}

// Printer returns a printer for the tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Message localizes err for display to the operator.
func Message(err error, tag language.Tag) string {
	p := message.NewPrinter(tag)

	var upstream *ingest.UpstreamError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ingest.ErrNoImages):
		return p.Sprintf(MsgNoImages)
	case errors.As(err, &upstream):
		switch {
		case upstream.StatusCode > 0:
			return p.Sprintf(MsgUpstreamStatus, upstream.StatusCode)
		case errors.Is(err, context.DeadlineExceeded):
			return p.Sprintf(MsgTimeout)
		default:
			return p.Sprintf(MsgUpstream)
		}
	case errors.Is(err, ingest.ErrUnparseableResponse):
		return p.Sprintf(MsgUnparseable)
	case errors.Is(err, catalog.ErrNotFound):
		return p.Sprintf(MsgNotFound)
	case errors.Is(err, catalog.ErrInvalidTransition):
		return p.Sprintf(MsgInvalidTransition)
	case errors.Is(err, catalog.ErrInvalidFields):
		return p.Sprintf(MsgInvalidFields)
	case errors.Is(err, images.ErrTooLarge), errors.Is(err, images.ErrNotAnImage), errors.Is(err, images.ErrEmptyUpload):
		return p.Sprintf(MsgBadImage)
	default:
		return p.Sprintf(MsgGeneric)
	}
}

// Extracted summarises an ingestion, mentioning skipped rows only when there
// are some.
func Extracted(tag language.Tag, committed, skipped int) string {
	p := message.NewPrinter(tag)
	s := p.Sprintf(MsgExtracted, committed)
	if skipped > 0 {
		s += ", " + p.Sprintf(MsgSkipped, skipped)
	}
	return s
}
