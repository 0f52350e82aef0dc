package attribution

import (
	"sort"

	"salesdesk/internal/domain"
)

// BuildTree сворачивает звонки в дерево атрибуции канал -> источник.
// Платежи передаются сгруппированными по звонкам.
func BuildTree(n *Normalizer, events []*domain.Event, payments map[string][]*domain.Payment) []*domain.AttributionNode {
	channels := make(map[string]*domain.AttributionNode)
	sources := make(map[string]map[string]*domain.AttributionNode)

	for _, event := range events {
		channel := n.Channel(event.RawSource)
		source := n.Canonical(event.RawSource)

		channelNode, ok := channels[channel]
		if !ok {
			channelNode = &domain.AttributionNode{Key: channel}
			channels[channel] = channelNode
			sources[channel] = make(map[string]*domain.AttributionNode)
		}

		sourceNode, ok := sources[channel][source]
		if !ok {
			sourceNode = &domain.AttributionNode{Key: source}
			sources[channel][source] = sourceNode
			channelNode.Children = append(channelNode.Children, sourceNode)
		}

		outcome := event.EffectiveOutcome()
		var cash int64
		for _, p := range payments[event.ID] {
			cash += p.AmountCents
		}

		for _, node := range []*domain.AttributionNode{channelNode, sourceNode} {
			node.Calls++
			if outcome.Showed() {
				node.Shows++
			}
			if outcome == domain.OutcomeClosed {
				node.Closes++
			}
			node.CashCents += cash
		}
	}

	roots := make([]*domain.AttributionNode, 0, len(channels))
	for _, node := range channels {
		sort.Slice(node.Children, func(i, j int) bool {
			if node.Children[i].Calls != node.Children[j].Calls {
				return node.Children[i].Calls > node.Children[j].Calls
			}
			return node.Children[i].Key < node.Children[j].Key
		})
		roots = append(roots, node)
	}

	sort.Slice(roots, func(i, j int) bool {
		if roots[i].Calls != roots[j].Calls {
			return roots[i].Calls > roots[j].Calls
		}
		return roots[i].Key < roots[j].Key
	})

	return roots
}
