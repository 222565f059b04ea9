package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     Kind
	}{
		{
			name:     "query",
			document: "query GetChats {\n  chats { id }\n}",
			want:     KindQuery,
		},
		{
			name:     "mutation",
			document: "mutation CreateChat($title: String!) {\n  insert_chats_one(object: { title: $title }) { id }\n}",
			want:     KindMutation,
		},
		{
			name:     "subscription",
			document: "subscription ChatsSubscription {\n  chats { id }\n}",
			want:     KindSubscription,
		},
		{
			name:     "shorthand is a query",
			document: "{ chats { id } }",
			want:     KindQuery,
		},
		{
			name:     "leading comments are skipped",
			document: "# fetches everything\n\nsubscription S { chats { id } }",
			want:     KindSubscription,
		},
		{
			name:     "no space before parenthesis",
			document: "mutation($id: uuid!) { delete_chats_by_pk(id: $id) { id } }",
			want:     KindMutation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectKind(tt.document))
		})
	}
}
