// Package navigation runs the navigation state machine.
//
// A Service owns the authoritative RouterState. Producers on any goroutine
// Submit messages (Subscribe, Push, Replace, GoBack, GoForward); a single
// writer drains them in FIFO order against a history.Provider, resolves the
// provider's current path once, follows redirects as replaces, publishes the
// new snapshot and notifies every live subscriber exactly once.
//
//	svc := navigation.NewService(tree, history.NewMemory("/"),
//	    navigation.WithUpdater(func(id navigation.SubscriberID) {
//	        // re-read svc.State()
//	    }),
//	)
//	go svc.Run(ctx)
//
//	nav := svc.Navigator()
//	nav.Navigate(router.NamedTarget{Name: "post", Params: router.Params{{Key: "id", Value: "42"}}})
//
// Readers call State at any time. The snapshot is swapped atomically and is
// never modified after publication.
//
// # Subscribers
//
// Subscribers are held by identity and liveness, never by ownership.
// WeakSubscriber drops out on its own once its owner is garbage collected;
// Subscription drops out after Close. Dead subscribers are pruned the next
// time a cycle notifies.
package navigation
