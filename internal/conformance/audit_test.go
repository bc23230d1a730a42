package conformance

import (
	"strings"
	"testing"

	"github.com/dbod-pe/promptpack/internal/models"
)

func auditContract() *models.Contract {
	return &models.Contract{
		Kind: models.ContractAuditReport,
		RequiredHeadings: []string{
			"Resumo Executivo|Executive Summary",
			"Pontuação|Scores",
			"Achados|Findings",
			"Quick Wins",
		},
		FindingsColumns: []string{
			"Categoria|Category",
			"Severidade|Severity",
			"Impacto|Impact",
			"Evidência|Evidence",
			"Recomendação|Recommendation",
		},
		ScoreCategories: []string{
			"Nomenclatura|Naming",
			"Estilo|Style",
			"SOLID",
			"Segurança|Security",
			"Performance",
			"Testabilidade|Testability",
		},
		SummaryMaxLines: 10,
		ScoreMax:        100,
	}
}

func validAuditReport() string {
	return `# Relatório de Auditoria

## 1. Resumo Executivo

O código apresenta boa organização geral, mas expõe credenciais em texto
plano e concatena SQL manualmente. Os problemas críticos se concentram no
módulo de persistência. Recomenda-se priorizar a correção de segurança
antes de qualquer refatoração estética.

## 2. Pontuação

- Nomenclatura: 85/100
- Estilo: 78/100
- SOLID: 70/100
- Segurança: 40/100
- Performance: 75/100
- Testabilidade: 65/100
- Pontuação Geral: 68/100

## 3. Achados

| Categoria | Severidade | Impacto | Evidência | Recomendação |
|-----------|------------|---------|-----------|--------------|
| Segurança | Crítica | Injeção de SQL | linha 42, query concatenada | usar parâmetros preparados |
| Estilo | Baixa | legibilidade | linha 10, nome de variável x | renomear para algo descritivo |

## 4. Quick Wins

- Extrair a string de conexão para variável de ambiente.
`
}

func TestVerifyAuditValidReport(t *testing.T) {
	report := VerifyAudit(auditContract(), validAuditReport())
	if !report.Valid {
		t.Fatalf("Expected valid report, got violations: %+v", report.Violations)
	}

	if report.Audit == nil {
		t.Fatal("Expected parsed audit report")
	}

	overall, ok := report.Audit.OverallScore()
	if !ok {
		t.Fatal("Expected overall score to be parsed")
	}
	if overall.Value != 68 {
		t.Errorf("Expected overall score 68, got %d", overall.Value)
	}

	if got := len(report.Audit.CategoryScores()); got != 6 {
		t.Errorf("Expected 6 category scores, got %d", got)
	}

	if len(report.Audit.Findings) != 2 {
		t.Fatalf("Expected 2 findings, got %d", len(report.Audit.Findings))
	}
	if report.Audit.Findings[0].Severity != models.SeverityCritical {
		t.Errorf("Expected first finding to be critical, got %v", report.Audit.Findings[0].Severity)
	}
	if report.Audit.Findings[1].Severity != models.SeverityLow {
		t.Errorf("Expected second finding to be low, got %v", report.Audit.Findings[1].Severity)
	}
}

func TestVerifyAuditEnglishHeadings(t *testing.T) {
	output := strings.NewReplacer(
		"Resumo Executivo", "Executive Summary",
		"Pontuação Geral", "Overall",
		"Pontuação", "Scores",
		"Achados", "Findings",
		"Categoria | Severidade | Impacto | Evidência | Recomendação",
		"Category | Severity | Impact | Evidence | Recommendation",
		"| Segurança | Crítica |", "| Security | Critical |",
		"| Estilo | Baixa |", "| Style | Low |",
	).Replace(validAuditReport())

	report := VerifyAudit(auditContract(), output)
	if !report.Valid {
		t.Fatalf("Expected English report to verify, got violations: %+v", report.Violations)
	}
}

func TestVerifyAuditMissingHeading(t *testing.T) {
	output := strings.Replace(validAuditReport(), "## 4. Quick Wins", "## 4. Outras Notas", 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for missing heading")
	}
	if !hasViolation(report, "MISSING_HEADING") {
		t.Errorf("Expected MISSING_HEADING, got %+v", report.Violations)
	}
}

func TestVerifyAuditSummaryTooLong(t *testing.T) {
	longSummary := strings.TrimSpace(strings.Repeat("Linha de resumo adicional.\n", 11))
	output := strings.Replace(validAuditReport(),
		"O código apresenta boa organização geral, mas expõe credenciais em texto\nplano e concatena SQL manualmente. Os problemas críticos se concentram no\nmódulo de persistência. Recomenda-se priorizar a correção de segurança\nantes de qualquer refatoração estética.",
		longSummary, 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for overlong summary")
	}
	if !hasViolation(report, "SUMMARY_TOO_LONG") {
		t.Errorf("Expected SUMMARY_TOO_LONG, got %+v", report.Violations)
	}
}

func TestVerifyAuditScoreOutOfRange(t *testing.T) {
	output := strings.Replace(validAuditReport(), "Nomenclatura: 85/100", "Nomenclatura: 130/100", 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for score above ceiling")
	}
	if !hasViolation(report, "SCORE_OUT_OF_RANGE") {
		t.Errorf("Expected SCORE_OUT_OF_RANGE, got %+v", report.Violations)
	}
}

func TestVerifyAuditWrongDenominator(t *testing.T) {
	output := strings.Replace(validAuditReport(), "Estilo: 78/100", "Estilo: 8/10", 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for wrong score denominator")
	}
	if !hasViolation(report, "SCORE_OUT_OF_RANGE") {
		t.Errorf("Expected SCORE_OUT_OF_RANGE, got %+v", report.Violations)
	}
}

func TestVerifyAuditMissingCategory(t *testing.T) {
	output := strings.Replace(validAuditReport(), "- Testabilidade: 65/100\n", "", 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for missing score category")
	}
	if !hasViolation(report, "MISSING_SCORE_CATEGORY") {
		t.Errorf("Expected MISSING_SCORE_CATEGORY, got %+v", report.Violations)
	}
	if !hasViolation(report, "SCORE_COUNT_MISMATCH") {
		t.Errorf("Expected SCORE_COUNT_MISMATCH, got %+v", report.Violations)
	}
}

func TestVerifyAuditMissingOverall(t *testing.T) {
	output := strings.Replace(validAuditReport(), "- Pontuação Geral: 68/100\n", "", 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report without an overall score")
	}
	if !hasViolation(report, "MISSING_OVERALL_SCORE") {
		t.Errorf("Expected MISSING_OVERALL_SCORE, got %+v", report.Violations)
	}
}

func TestVerifyAuditUnknownSeverity(t *testing.T) {
	output := strings.Replace(validAuditReport(), "| Crítica |", "| Urgente |", 1)

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for unknown severity")
	}
	if !hasViolation(report, "UNKNOWN_SEVERITY") {
		t.Errorf("Expected UNKNOWN_SEVERITY, got %+v", report.Violations)
	}
}

func TestVerifyAuditWrongColumns(t *testing.T) {
	output := strings.NewReplacer(
		"| Categoria | Severidade | Impacto | Evidência | Recomendação |",
		"| Categoria | Severidade | Impacto | Recomendação |",
		"|-----------|------------|---------|-----------|--------------|",
		"|-----------|------------|---------|--------------|",
		"| Segurança | Crítica | Injeção de SQL | linha 42, query concatenada | usar parâmetros preparados |",
		"| Segurança | Crítica | Injeção de SQL | usar parâmetros preparados |",
		"| Estilo | Baixa | legibilidade | linha 10, nome de variável x | renomear para algo descritivo |",
		"| Estilo | Baixa | legibilidade | renomear para algo descritivo |",
	).Replace(validAuditReport())

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report for wrong table columns")
	}
	if !hasViolation(report, "WRONG_TABLE_COLUMNS") {
		t.Errorf("Expected WRONG_TABLE_COLUMNS, got %+v", report.Violations)
	}
}

func TestVerifyAuditMissingTable(t *testing.T) {
	output := strings.NewReplacer(
		"| Categoria | Severidade | Impacto | Evidência | Recomendação |", "Nenhum achado registrado.",
		"|-----------|------------|---------|-----------|--------------|", "",
		"| Segurança | Crítica | Injeção de SQL | linha 42, query concatenada | usar parâmetros preparados |", "",
		"| Estilo | Baixa | legibilidade | linha 10, nome de variável x | renomear para algo descritivo |", "",
	).Replace(validAuditReport())

	report := VerifyAudit(auditContract(), output)
	if report.Valid {
		t.Fatal("Expected invalid report without a findings table")
	}
	if !hasViolation(report, "MISSING_FINDINGS_TABLE") {
		t.Errorf("Expected MISSING_FINDINGS_TABLE, got %+v", report.Violations)
	}
}
