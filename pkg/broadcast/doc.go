// Package broadcast delivers typed messages to many subscribers, either
// in-process (Memory) or across processes via Redis pub/sub (Redis).
//
//	b := broadcast.NewMemory[acl.Event](8)
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//	for msg := range sub.Receive(ctx) {
//	    handle(msg.Data)
//	}
//
// Delivery is best effort: a subscriber that falls behind drops messages.
package broadcast
