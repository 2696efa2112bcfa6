package domain

import "testing"

func TestBundleAttachTagDeduplicates(t *testing.T) {
	t.Parallel()

	var b Bundle
	if !b.Empty() {
		t.Fatalf("zero bundle should be empty")
	}

	b.AttachTag("related_news_tag")
	b.AttachTag("related_news_tag")
	b.AttachTag("node_list")

	if len(b.Tags) != 2 || b.Tags[0] != "related_news_tag" || b.Tags[1] != "node_list" {
		t.Fatalf("unexpected tags %v", b.Tags)
	}
}
