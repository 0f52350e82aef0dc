package attribution

import (
	"strings"

	"salesdesk/internal/domain"
)

// Встроенная таблица алиасов: как лиды обычно подписывают источник
// в UTM-метках и анкетах. Алиасы организации из БД имеют приоритет.
var builtinAliases = map[string]string{
	"fb":            "facebook",
	"fb ads":        "facebook",
	"fb-ads":        "facebook",
	"facebook ads":  "facebook",
	"facebook ad":   "facebook",
	"meta":          "facebook",
	"meta ads":      "facebook",
	"ig":            "instagram",
	"insta":         "instagram",
	"instagram ads": "instagram",
	"yt":            "youtube",
	"youtube ads":   "youtube",
	"google ads":    "google",
	"adwords":       "google",
	"ppc":           "google",
	"tt":            "tiktok",
	"tik tok":       "tiktok",
	"tiktok ads":    "tiktok",
	"li":            "linkedin",
	"linked in":     "linkedin",
	"pod":           "podcast",
	"referral":      "referral",
	"ref":           "referral",
	"affiliate":     "referral",
	"word of mouth": "referral",
	"wom":           "referral",
	"cold email":    "outbound",
	"cold dm":       "outbound",
	"cold call":     "outbound",
	"outreach":      "outbound",
	"email list":    "email",
	"newsletter":    "email",
}

// Канал для каждого канонического источника
var builtinChannels = map[string]string{
	"facebook":  domain.ChannelPaid,
	"instagram": domain.ChannelPaid,
	"google":    domain.ChannelPaid,
	"tiktok":    domain.ChannelPaid,
	"linkedin":  domain.ChannelPaid,
	"youtube":   domain.ChannelOrganic,
	"podcast":   domain.ChannelOrganic,
	"email":     domain.ChannelOrganic,
	"referral":  domain.ChannelReferral,
	"outbound":  domain.ChannelOutbound,
}

// Normalizer приводит сырые названия источников к каноническим.
// Алиасы организации накладываются поверх встроенной таблицы.
type Normalizer struct {
	aliases  map[string]string
	channels map[string]string
}

// NewNormalizer создает нормализатор с алиасами организации
func NewNormalizer(orgAliases map[string]string, orgChannels map[string]string) *Normalizer {
	n := &Normalizer{
		aliases:  make(map[string]string, len(builtinAliases)+len(orgAliases)),
		channels: make(map[string]string, len(builtinChannels)+len(orgChannels)),
	}

	for alias, canonical := range builtinAliases {
		n.aliases[alias] = canonical
	}
	for alias, canonical := range orgAliases {
		n.aliases[normalizeKey(alias)] = strings.ToLower(strings.TrimSpace(canonical))
	}

	for source, channel := range builtinChannels {
		n.channels[source] = channel
	}
	for source, channel := range orgChannels {
		n.channels[strings.ToLower(strings.TrimSpace(source))] = channel
	}

	return n
}

// Canonical возвращает каноническое имя источника.
// Неизвестные источники возвращаются нормализованными как есть.
func (n *Normalizer) Canonical(raw string) string {
	key := normalizeKey(raw)
	if key == "" {
		return "unknown"
	}

	if canonical, ok := n.aliases[key]; ok {
		return canonical
	}

	// UTM-значения вида "facebook_paid" или "ig/stories"
	for _, sep := range []string{"_", "/", "|"} {
		if idx := strings.Index(key, sep); idx > 0 {
			if canonical, ok := n.aliases[key[:idx]]; ok {
				return canonical
			}
		}
	}

	return key
}

// Channel возвращает канал атрибуции для сырого источника
func (n *Normalizer) Channel(raw string) string {
	canonical := n.Canonical(raw)
	if channel, ok := n.channels[canonical]; ok {
		return channel
	}
	return domain.ChannelOther
}

func normalizeKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.Join(strings.Fields(key), " ")
	return key
}
