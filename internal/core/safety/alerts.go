package safety

import "strings"

// 後端分析系統的警示狀態
const (
	AlertSafe      = "seguro"
	AlertPotential = "risco_potencial"
	AlertContains  = "contem"
)

// BackendAlert 伺服器端分析系統產生的警示
type BackendAlert struct {
	Restricao string `json:"restricao"`
	Status    string `json:"status"`
	Mensagem  string `json:"mensagem,omitempty"`
}

// FromBackendAlerts 將後端警示轉成與 CheckFood 相同的輸出格式。
// contem 與 risco_potencial 視為衝突，seguro 與未知狀態忽略；同一限制只保留第一筆。
func FromBackendAlerts(alerts []BackendAlert, labels *LabelCatalog, locale Locale) Result {
	locale = ParseLocale(string(locale))
	c := newCollector()
	for _, a := range alerts {
		switch NormalizeKey(a.Status) {
		case AlertContains, AlertPotential:
		default:
			continue
		}
		key := NormalizeKey(a.Restricao)
		if key == "" {
			continue
		}
		label := labels.Resolve(key)
		msg := strings.TrimSpace(a.Mensagem)
		if msg == "" {
			msg = formatMessage(locale, TypeIntolerance, label)
		}
		c.add(ConflictDetail{
			RestrictionKey: key,
			Type:           TypeIntolerance,
			Label:          label,
			Message:        msg,
		})
	}
	return c.result(locale)
}
