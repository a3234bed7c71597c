package facilities

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/invenio/internal/models"
)

// Key spelling variants seen across catalog exports, checked in order. The
// first key with a non-empty value wins.
var (
	rawIDKeys    = []string{"BelgeNo", "id", "ID", "Id", "raw_id"}
	nameKeys     = []string{"TesisAdi", "adi", "ADI", "tesis_adi", "name"}
	cityKeys     = []string{"Sehir", "Şehir", "Il", "İl", "city", "il"}
	districtKeys = []string{"Ilce", "İlçe", "district", "ilce"}
	typeKeys     = []string{"BelgeTuru", "belge_turu", "tur", "TUR", "type"}
	addressKeys  = []string{"adres", "ADRES", "address"}
)

// Canonical Belge Türü categories. Raw exports carry these five values plus
// assorted transliterations and alternate encodings.
const (
	typeBasitKonaklama  = "BASİT KONAKLAMA"
	typeTurizmIsletmesi = "Turizm İşletmesi Belgesi"
	typePlajIsletmesi   = "PLAJ İŞLETMESİ"
	typeTurizmYatirimi  = "Turizm Yatırımı Belgesi"
	typeKismiIsletmesi  = "Kısmi Turizm İşletmesi Belgesi"
)

// pick returns the first present, non-empty value among keys, stringified and
// trimmed. A whitespace-only value still wins its key and trims to empty
// rather than falling through.
func pick(row models.UploadItem, keys []string, fallback string) string {
	for _, k := range keys {
		v, ok := row[k]
		if !ok || !present(v) {
			continue
		}
		return strings.TrimSpace(stringify(v))
	}
	return fallback
}

// rawIDOf resolves the upsert identity. Unlike pick it does not trim, so the
// stored raw ID matches the uploaded value byte for byte.
func rawIDOf(row models.UploadItem) string {
	for _, k := range rawIDKeys {
		if v, ok := row[k]; ok && present(v) {
			return stringify(v)
		}
	}
	return ""
}

func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// normalizeBelgeTuru maps a raw document type onto one of the five canonical
// categories. Exact canonical values pass through; anything else is matched
// by keyword against the lowered string, which catches ASCII transliterations
// like "Turizm Yatirimi Belgesi". The second return reports whether the value
// was recognized; unknown values default to BASİT KONAKLAMA.
func normalizeBelgeTuru(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return typeBasitKonaklama, true
	}

	switch raw {
	case typeBasitKonaklama, typeTurizmIsletmesi, typePlajIsletmesi, typeTurizmYatirimi, typeKismiIsletmesi:
		return raw, true
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "basit"):
		return typeBasitKonaklama, true
	case strings.Contains(lower, "yatir"):
		return typeTurizmYatirimi, true
	case strings.Contains(lower, "kismi"), strings.Contains(lower, "kısmi"):
		return typeKismiIsletmesi, true
	case strings.Contains(lower, "plaj"):
		return typePlajIsletmesi, true
	case strings.Contains(lower, "turizm") && (strings.Contains(lower, "isletmesi") || strings.Contains(lower, "işletmesi")):
		return typeTurizmIsletmesi, true
	}

	return typeBasitKonaklama, false
}
