// penman はリモートブログAPIの状態同期コアを操作するCLI。
// ログは構造化JSONでstderrへ、表示はstdoutへ出力する。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/hitoshi/penman/internal/app"
	"github.com/hitoshi/penman/internal/model"
	"github.com/hitoshi/penman/internal/post"
	"github.com/hitoshi/penman/internal/session"
	"github.com/hitoshi/penman/internal/taxonomy"
)

const version = "0.1.0"

const usage = `penman - ブログAPIクライアント

Usage:
    penman register --name=<name> --email=<email> --password=<password>
    penman login --email=<email> --password=<password>
    penman logout
    penman whoami
    penman posts [--page=<page>] [--limit=<limit>] [--category=<category>]
    penman search <query> [--page=<page>] [--tag=<tag>] [--category=<category>]
    penman post <id>
    penman publish --title=<title> --content=<content>
        [--category=<category>] [--tag=<tag>] [--draft]
    penman delete <id>
    penman like <id>
    penman bookmark <id>
    penman bookmarks
    penman comment <id> <content>
    penman comments <id>
    penman categories
    penman tags

Options:
    -h --help                Show this screen.
    --version                Show version.
    --name=<name>            Display name.
    --email=<email>          Account email.
    --password=<password>    Account password.
    --page=<page>            Page number [default: 1].
    --limit=<limit>          Page size [default: 10].
    --category=<category>    Category name.
    --tag=<tag>              Tag name.
    --title=<title>          Post title.
    --content=<content>      Post content (HTML).
    --draft                  Save as draft instead of publishing.

Environment:
    PENMAN_API_BASE_URL      Remote blog API base address (required).`

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := app.Init(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, err := app.New(cfg, slog.Default())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx := context.Background()
	a.Start(ctx)

	if err := run(ctx, a, opts); err != nil {
		os.Exit(1)
	}
}

// run はサブコマンドを実行する。
// 操作の失敗理由は通知として表示済みなので、エラーの中身はここでは出力しない。
func run(ctx context.Context, a *app.App, opts docopt.Opts) error {
	var err error
	switch {
	case boolOpt(opts, "register"):
		err = a.Session.Register(ctx, session.RegisterInput{
			Name:     stringOpt(opts, "--name"),
			Email:    stringOpt(opts, "--email"),
			Password: stringOpt(opts, "--password"),
		})
	case boolOpt(opts, "login"):
		err = a.Session.Login(ctx, stringOpt(opts, "--email"), stringOpt(opts, "--password"))
		if err == nil {
			printUser(a.Session.Store().State().User)
		}
	case boolOpt(opts, "logout"):
		err = a.Session.Logout(ctx)
	case boolOpt(opts, "whoami"):
		st := a.Session.Store().State()
		if !st.IsAuthenticated {
			fmt.Println("未ログインです")
			return nil
		}
		printUser(st.User)
	case boolOpt(opts, "posts"):
		err = a.Posts.GetAll(ctx, post.ListOptions{
			Page:     intOpt(opts, "--page"),
			Limit:    intOpt(opts, "--limit"),
			Category: stringOpt(opts, "--category"),
		})
		if err == nil {
			printPostList(a.Posts.Store().State())
		}
	case boolOpt(opts, "search"):
		err = a.Posts.Search(ctx, post.SearchOptions{
			Search:   stringOpt(opts, "<query>"),
			Tag:      stringOpt(opts, "--tag"),
			Category: stringOpt(opts, "--category"),
			Page:     intOpt(opts, "--page"),
			Limit:    intOpt(opts, "--limit"),
		})
		if err == nil {
			printPostList(a.Posts.Store().State())
		}
	case boolOpt(opts, "post"):
		err = a.Posts.GetByID(ctx, stringOpt(opts, "<id>"))
		if err == nil {
			if current := a.Posts.Store().State().Current; current != nil {
				printPost(*current)
			}
		}
	case boolOpt(opts, "publish"):
		published := !boolOpt(opts, "--draft")
		in := post.CreateInput{
			Title:       stringOpt(opts, "--title"),
			Content:     stringOpt(opts, "--content"),
			IsPublished: &published,
		}
		if c := stringOpt(opts, "--category"); c != "" {
			in.Categories = []string{c}
		}
		if tg := stringOpt(opts, "--tag"); tg != "" {
			in.Tags = []string{tg}
		}
		err = a.Posts.Create(ctx, in)
	case boolOpt(opts, "delete"):
		err = a.Posts.Delete(ctx, stringOpt(opts, "<id>"))
	case boolOpt(opts, "like"):
		err = a.Posts.Like(ctx, stringOpt(opts, "<id>"))
	case boolOpt(opts, "bookmark"):
		err = a.Session.BookmarkPost(ctx, stringOpt(opts, "<id>"))
	case boolOpt(opts, "bookmarks"):
		err = a.Session.GetBookmarks(ctx)
		if err == nil {
			for _, p := range a.Session.Store().State().Bookmarks {
				fmt.Printf("%s  %s\n", p.ID, p.Title)
			}
		}
	case boolOpt(opts, "comment"):
		err = a.Comments.Add(ctx, stringOpt(opts, "<id>"), stringOpt(opts, "<content>"))
	case boolOpt(opts, "comments"):
		err = a.Comments.GetByPost(ctx, stringOpt(opts, "<id>"))
		if err == nil {
			for _, c := range a.Comments.Store().State().Comments {
				fmt.Printf("%s (%s): %s\n", c.Author.Name, c.CreatedAt.Format("2006-01-02"), c.Content)
			}
		}
	case boolOpt(opts, "categories"):
		err = a.Taxonomy.GetAllCategories(ctx)
		if err == nil {
			printTaxonomy(a.Taxonomy.Store().State(), false)
		}
	case boolOpt(opts, "tags"):
		err = a.Taxonomy.GetAllTags(ctx)
		if err == nil {
			printTaxonomy(a.Taxonomy.Store().State(), true)
		}
	}

	// 決着の通知をまとめて表示する
	for _, msg := range a.Notifier.Messages() {
		fmt.Printf("[%s] %s\n", msg.Phase, msg.Text)
	}
	return err
}

func printUser(u *model.User) {
	if u == nil {
		return
	}
	fmt.Printf("%s <%s> role=%s\n", u.Name, u.Email, u.Role)
}

func printPost(p model.Post) {
	fmt.Printf("%s\n%s\nby %s  likes=%d views=%d\n", p.Title, p.ID, p.Author.Name, len(p.Likes), p.Views)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Println(p.Content)
}

func printPostList(st post.State) {
	for _, p := range st.Posts {
		fmt.Printf("%s  %s\n", p.ID, p.Title)
	}
	fmt.Printf("page %d/%d (%d posts)\n",
		st.Pagination.CurrentPage, st.Pagination.TotalPages, st.Pagination.TotalPosts)
}

func printTaxonomy(st taxonomy.State, tags bool) {
	if tags {
		for _, tg := range st.Tags {
			fmt.Printf("%s  %s\n", tg.ID, tg.Name)
		}
		return
	}
	for _, c := range st.Categories {
		fmt.Printf("%s  %s\n", c.ID, c.Name)
	}
}

func boolOpt(opts docopt.Opts, key string) bool {
	v, _ := opts.Bool(key)
	return v
}

func stringOpt(opts docopt.Opts, key string) string {
	v, _ := opts.String(key)
	return v
}

func intOpt(opts docopt.Opts, key string) int {
	v, _ := opts.Int(key)
	return v
}
