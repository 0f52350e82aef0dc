package domain

import "strings"

// Outcome - фиксированный результат звонка, к которому приводится
// произвольный pipeline-статус из CRM
type Outcome string

const (
	OutcomeNoShow             Outcome = "no_show"
	OutcomeRescheduled        Outcome = "rescheduled"
	OutcomeCanceled           Outcome = "canceled"
	OutcomeNotQualified       Outcome = "not_qualified"
	OutcomeLost               Outcome = "lost"
	OutcomeClosed             Outcome = "closed"
	OutcomeShowedOfferNoClose Outcome = "showed_offer_no_close"
	OutcomeShowedNoOffer      Outcome = "showed_no_offer"
	OutcomeUnknown            Outcome = ""
)

// Showed сообщает, считается ли звонок состоявшимся.
// no_show / rescheduled / canceled никогда не считаются показом.
func (o Outcome) Showed() bool {
	switch o {
	case OutcomeClosed, OutcomeLost, OutcomeNotQualified,
		OutcomeShowedOfferNoClose, OutcomeShowedNoOffer:
		return true
	}
	return false
}

// OfferMade сообщает, было ли на звонке сделано предложение.
func (o Outcome) OfferMade() bool {
	switch o {
	case OutcomeClosed, OutcomeLost, OutcomeShowedOfferNoClose:
		return true
	}
	return false
}

// Terminal сообщает, что по звонку больше не ожидается действий.
func (o Outcome) Terminal() bool {
	return o != OutcomeUnknown && o != OutcomeRescheduled
}

// statusRule - одно правило сопоставления pipeline-статуса
type statusRule struct {
	outcome  Outcome
	keywords []string
}

// Порядок правил важен: терминальные статусы проверяются раньше
// эвристик show/offer, чтобы "no show - rebooked" не считался показом.
// lost идет раньше closed, иначе "closed lost" попадает в closed.
var statusRules = []statusRule{
	{OutcomeNoShow, []string{"no show", "no-show", "noshow", "didn't show", "didnt show", "ghosted"}},
	{OutcomeRescheduled, []string{"resched", "rebook", "moved call", "pushed call"}},
	{OutcomeCanceled, []string{"cancel", "called off"}},
	{OutcomeNotQualified, []string{"not qualified", "unqualified", "disqualif", "dq", "not a fit", "bad fit"}},
	{OutcomeLost, []string{"closed lost", "closed-lost", "lost", "went dark", "dead"}},
	{OutcomeClosed, []string{"closed won", "closed-won", "won", "closed", "deal signed", "signed", "sale made", "purchased"}},
	{OutcomeShowedOfferNoClose, []string{"offer made", "offered", "pitched", "follow up", "follow-up", "thinking about it"}},
	{OutcomeShowedNoOffer, []string{"showed", "show up", "attended", "took call", "completed call", "no offer"}},
}

// ClassifyPipelineStatus приводит произвольную строку статуса из CRM
// к одному из фиксированных результатов. Неизвестные статусы дают
// OutcomeUnknown и в отчетах считаются "pending".
func ClassifyPipelineStatus(status string) Outcome {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return OutcomeUnknown
	}

	for _, rule := range statusRules {
		for _, kw := range rule.keywords {
			if kw == "dq" {
				// "dq" совпадает только как отдельное слово,
				// иначе ловит "headquarters" и подобное
				if s == "dq" || strings.HasPrefix(s, "dq ") || strings.HasSuffix(s, " dq") {
					return rule.outcome
				}
				continue
			}
			if strings.Contains(s, kw) {
				return rule.outcome
			}
		}
	}

	return OutcomeUnknown
}

// ParseOutcome проверяет значение, пришедшее из PCF-формы.
func ParseOutcome(raw string) (Outcome, bool) {
	o := Outcome(strings.ToLower(strings.TrimSpace(raw)))
	switch o {
	case OutcomeNoShow, OutcomeRescheduled, OutcomeCanceled, OutcomeNotQualified,
		OutcomeLost, OutcomeClosed, OutcomeShowedOfferNoClose, OutcomeShowedNoOffer:
		return o, true
	}
	return OutcomeUnknown, false
}
