package router

import (
	"reflect"
	"strings"
	"testing"
)

// blogTree is:
//
//	/                 home
//	/users            users (name "users")
//	/users/{id}       user  (name "user")
//	/blog             (none)
//	/blog/            blog-list
//	/blog/{post}      blog-post (name "post") + sidebar slot
//	/old              redirect to /blog
//	/*                not-found
func blogTree() *Segment {
	return NewSegment().
		WithIndex(Single{ID: "home"}).
		Fixed("users", NewRoute(Single{ID: "users"}).Named("users").Nest(
			NewSegment().Variable("id", NewRoute(Single{ID: "user"}).Named("user")),
		)).
		Fixed("blog", NewRoute(NoContent).Nest(
			NewSegment().
				WithIndex(Single{ID: "blog-list"}).
				Variable("post", NewRoute(Multi{
					Main:  "blog-post",
					Slots: []Slot{{Name: "sidebar", ID: "post-nav"}},
				}).Named("post")),
		)).
		Fixed("old", NewRoute(Redirect{Target: PathTarget("/blog")})).
		Fallback(Single{ID: "not-found"})
}

func strptr(s string) *string { return &s }

func TestResolveIndex(t *testing.T) {
	res := Resolve(blogTree(), "/", nil)
	if res.Redirect != nil {
		t.Fatalf("Resolve(/) redirect = %v, want none", res.Redirect)
	}
	s := res.State
	if s.Path != "/" {
		t.Errorf("Path = %q, want %q", s.Path, "/")
	}
	if !s.Matched {
		t.Error("Matched = false, want true")
	}
	if want := []ContentID{"home"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
	if s.Query != nil {
		t.Errorf("Query = %q, want nil", *s.Query)
	}
}

func TestResolveFixedBeatsVariable(t *testing.T) {
	tree := NewSegment().
		Fixed("users", NewRoute(Single{ID: "users"}).Named("users")).
		Variable("slug", NewRoute(Single{ID: "page"}).Named("page"))

	s := Resolve(tree, "/users", nil).State
	if want := []ContentID{"users"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
	if len(s.Params) != 0 {
		t.Errorf("Params = %v, want none", s.Params)
	}
	if !s.Names.Has("users") || s.Names.Has("page") {
		t.Errorf("Names = %v, want only users", s.Names.Sorted())
	}

	s = Resolve(tree, "/about", nil).State
	if got := s.Params.Get("slug"); got != "about" {
		t.Errorf("Params[slug] = %q, want %q", got, "about")
	}
}

func TestResolveVariableBeatsFallback(t *testing.T) {
	s := Resolve(blogTree(), "/blog/42", nil).State
	if !s.Matched {
		t.Fatal("Matched = false, want true")
	}
	if got := s.Params.Get("post"); got != "42" {
		t.Errorf("Params[post] = %q, want %q", got, "42")
	}
	if want := []ContentID{"blog-post"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
	if want := map[string][]ContentID{"sidebar": {"post-nav"}}; !reflect.DeepEqual(s.Components.Slots, want) {
		t.Errorf("Components.Slots = %v, want %v", s.Components.Slots, want)
	}
	if !s.Names.Has("post") {
		t.Errorf("Names = %v, want post", s.Names.Sorted())
	}
}

func TestResolveNestedIndex(t *testing.T) {
	s := Resolve(blogTree(), "/blog/", nil).State
	if s.Path != "/blog" {
		t.Errorf("Path = %q, want %q", s.Path, "/blog")
	}
	if want := []ContentID{"blog-list"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
}

func TestResolveChainAccumulates(t *testing.T) {
	s := Resolve(blogTree(), "/users/7", nil).State
	if want := []ContentID{"users", "user"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
	if want := []string{"user", "users"}; !reflect.DeepEqual(s.Names.Sorted(), want) {
		t.Errorf("Names = %v, want %v", s.Names.Sorted(), want)
	}
}

func TestResolveFallbackIsTerminal(t *testing.T) {
	s := Resolve(blogTree(), "/nope/deeper", nil).State
	if !s.Matched {
		t.Error("Matched = false, want true")
	}
	if s.Path != "/nope/deeper" {
		t.Errorf("Path = %q, want %q", s.Path, "/nope/deeper")
	}
	if want := []ContentID{"not-found"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
}

func TestResolveIndexOnly(t *testing.T) {
	tree := NewSegment().WithIndex(Single{ID: "home"})

	s := Resolve(tree, "/", nil).State
	if !s.Matched || !reflect.DeepEqual(s.Components.Main, []ContentID{"home"}) {
		t.Errorf("Resolve(/) = matched %v, main %v; want matched home", s.Matched, s.Components.Main)
	}

	s = Resolve(tree, "/anything", nil).State
	if s.Matched {
		t.Error("Resolve(/anything).Matched = true, want false")
	}
	if len(s.Components.Main) != 0 {
		t.Errorf("Resolve(/anything).Components.Main = %v, want empty", s.Components.Main)
	}
	if want := []string{"anything"}; !reflect.DeepEqual(s.Remainder, want) {
		t.Errorf("Resolve(/anything).Remainder = %v, want %v", s.Remainder, want)
	}
}

func TestResolveUnmatchedKeepsChain(t *testing.T) {
	s := Resolve(blogTree(), "/users/7/extra", nil).State
	if s.Matched {
		t.Fatal("Matched = true, want false")
	}
	if want := []ContentID{"users", "user"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}
	if want := []string{"extra"}; !reflect.DeepEqual(s.Remainder, want) {
		t.Errorf("Remainder = %v, want %v", s.Remainder, want)
	}
}

func TestResolveRedirect(t *testing.T) {
	res := Resolve(blogTree(), "/old", nil)
	if res.State != nil {
		t.Fatalf("State = %+v, want nil", res.State)
	}
	if res.Redirect != PathTarget("/blog") {
		t.Errorf("Redirect = %v, want /blog", res.Redirect)
	}

	// Deeper segments are not visited once a redirect is hit.
	res = Resolve(blogTree(), "/old/whatever", nil)
	if res.Redirect != PathTarget("/blog") {
		t.Errorf("Redirect = %v, want /blog", res.Redirect)
	}
}

func TestResolveQueryVerbatim(t *testing.T) {
	s := Resolve(blogTree(), "/blog/42", strptr("b=2&a=1&a=3")).State
	if s.Query == nil || *s.Query != "b=2&a=1&a=3" {
		t.Errorf("Query = %v, want %q", s.Query, "b=2&a=1&a=3")
	}
	if s.URL() != "/blog/42?b=2&a=1&a=3" {
		t.Errorf("URL() = %q", s.URL())
	}
}

func TestResolveURL(t *testing.T) {
	s := ResolveURL(blogTree(), "/blog/42?x=1").State
	if s.Path != "/blog/42" || s.QueryString() != "x=1" {
		t.Errorf("ResolveURL = %q ? %q", s.Path, s.QueryString())
	}

	s = ResolveURL(blogTree(), "/blog/42").State
	if s.Query != nil {
		t.Errorf("Query = %q, want nil", *s.Query)
	}
}

func TestResolveDecodesSegments(t *testing.T) {
	s := Resolve(blogTree(), "/users/jane%20doe", nil).State
	if got := s.Params.Get("id"); got != "jane doe" {
		t.Errorf("Params[id] = %q, want %q", got, "jane doe")
	}
	if s.Path != "/users/jane%20doe" {
		t.Errorf("Path = %q, want %q", s.Path, "/users/jane%20doe")
	}
}

func TestResolveRouterFallback(t *testing.T) {
	tree := NewSegment().WithIndex(Single{ID: "home"})

	s := Resolve(tree, "/missing", nil, WithFallback(Single{ID: "404"})).State
	if s.Matched {
		t.Error("Matched = true, want false")
	}
	if want := []ContentID{"404"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("Components.Main = %v, want %v", s.Components.Main, want)
	}

	s = Resolve(tree, "/", nil, WithFallback(Single{ID: "404"})).State
	if want := []ContentID{"home"}; !reflect.DeepEqual(s.Components.Main, want) {
		t.Errorf("matched Components.Main = %v, want %v", s.Components.Main, want)
	}
}

func TestResolveDeterministic(t *testing.T) {
	tree := blogTree()
	paths := []string{"/", "/users", "/users/1", "/blog", "/blog/hello", "/x/y/z", "/old", "//users//2//"}
	for _, p := range paths {
		first := Resolve(tree, p, strptr("q=1"))
		for i := 0; i < 5; i++ {
			if again := Resolve(tree, p, strptr("q=1")); !reflect.DeepEqual(first, again) {
				t.Errorf("Resolve(%q) not deterministic: %+v vs %+v", p, first, again)
			}
		}
	}
}

func TestResolveNilTree(t *testing.T) {
	s := Resolve(nil, "/", nil).State
	if !s.Matched {
		t.Error("Resolve(nil, /).Matched = false, want true")
	}
	s = Resolve(nil, "/a", nil).State
	if s.Matched {
		t.Error("Resolve(nil, /a).Matched = true, want false")
	}
}

func TestResolveNilRoutes(t *testing.T) {
	s := Resolve(NewSegment().Variable("id", nil), "/x", nil).State
	if s.Matched || len(s.Params) != 0 {
		t.Errorf("Resolve(nil variable route) = matched %v params %v, want unmatched", s.Matched, s.Params)
	}
	if got := strings.Join(s.Remainder, "/"); got != "x" {
		t.Errorf("Remainder = %q, want %q", got, "x")
	}

	tree := NewSegment().Fixed("a", nil).Fallback(Single{ID: "not-found"})
	s = Resolve(tree, "/a", nil).State
	if !s.Matched || len(s.Components.Main) != 1 || s.Components.Main[0] != "not-found" {
		t.Errorf("Resolve(nil fixed route) = %+v, want fallback", s)
	}
}
