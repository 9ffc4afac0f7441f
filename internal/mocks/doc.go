// Package mocks provides hand-written test doubles for the provider client
// interfaces and the JWT service.
//
// Each mock records its calls and either returns its default fields or
// delegates to an optional Fn field:
//
//	chat := &mocks.MockChatClient{
//	    CompleteChatFn: func(ctx context.Context, msgs []provider.Message, opts provider.ChatOptions) (string, error) {
//	        return "", provider.ErrRateLimited
//	    },
//	}
//
// Mocks of service-level interfaces live next to their consumers' tests to
// keep this package free of service imports.
package mocks
