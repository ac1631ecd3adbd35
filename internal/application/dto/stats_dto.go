package dto

// StatsSummaryDTO resposta de GET /api/stats/summary.
// Totais por status do mês de referência, mais os autorizados ainda abertos.
type StatsSummaryDTO struct {
	Month    string         `json:"month"` // AAAA-MM
	ByStatus map[string]int `json:"by_status"`
	Total    int            `json:"total"`
	Open     int            `json:"open"` // autorizados não encerrados/cancelados
}
