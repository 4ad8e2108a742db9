package cli

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"planejai/internal/core"
	applog "planejai/internal/log"
	"planejai/internal/sheets"
	"planejai/internal/sheets/memory"
	"planejai/internal/storage"
)

// ErrUsage marks a malformed command line.
var ErrUsage = errors.New("usage error")

const usage = `usage: planejai <command> [flags]

commands:
  login       [-email E] [-senha S]         sign in (password read from stdin if omitted)
  logout                                    end the session
  senha       -atual A -nova N              change password
  me                                        show the signed-in user
  usuario     criar|atualizar|remover|buscar
  termos                                    show the current terms of use
  categorias                                list categories
  categoria   <id>                          show one category
  saldo       [-mes YYYY-MM]                monthly balance of the wallet
  lancamentos listar|filtrar|buscar|adicionar|atualizar|remover
  export      [-mes YYYY-MM]                export a month of lancamentos
`

// Usage writes the command summary to w.
func Usage(w io.Writer) {
	fmt.Fprint(w, usage)
}

type command struct {
	app *App
	in  *bufio.Reader
	out io.Writer
	now func() time.Time
}

// Run dispatches one command line.
func Run(ctx context.Context, app *App, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		Usage(out)
		return ErrUsage
	}
	c := &command{app: app, in: bufio.NewReader(in), out: out, now: time.Now}
	name, rest := args[0], args[1:]
	ctx = applog.WithContext(ctx, app.Logger.With("command", name))

	switch name {
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout(ctx)
	case "senha":
		return c.senha(ctx, rest)
	case "me":
		return c.me(ctx)
	case "usuario":
		return c.usuario(ctx, rest)
	case "termos":
		return c.termos(ctx)
	case "categorias":
		return c.categorias(ctx)
	case "categoria":
		return c.categoria(ctx, rest)
	case "saldo":
		return c.saldo(ctx, rest)
	case "lancamentos":
		return c.lancamentos(ctx, rest)
	case "export":
		return c.export(ctx, rest)
	case "help", "-h", "--help":
		Usage(out)
		return nil
	default:
		Usage(out)
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

// splitID takes a leading positional id so flags may follow it.
func splitID(sub string, args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: %s needs an id", ErrUsage, sub)
	}
	return args[0], args[1:], nil
}

func (c *command) readLine(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *command) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	senha := fs.String("senha", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *email == "" {
		last, err := c.app.Repo.Preference(ctx, prefLastEmail)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		*email = last
	}
	if *email == "" {
		v, err := c.readLine("Email: ")
		if err != nil {
			return err
		}
		*email = v
	}
	if *senha == "" {
		v, err := c.readLine("Senha: ")
		if err != nil {
			return err
		}
		*senha = v
	}

	snap, err := c.app.Session.Login(ctx, core.Credenciais{Email: *email, Senha: *senha})
	if err != nil {
		return err
	}
	if err := c.app.Repo.SetPreference(ctx, prefLastEmail, *email); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Failed to remember email", applog.FieldError, err.Error())
	}
	u := snap.Data.Usuario
	fmt.Fprintf(c.out, "Logged in as %s <%s> (carteira %s)\n", u.Nome, u.Email, snap.Data.CarteiraID)
	return nil
}

func (c *command) logout(ctx context.Context) error {
	if err := c.app.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *command) senha(ctx context.Context, args []string) error {
	fs := newFlags("senha")
	atual := fs.String("atual", "", "current password")
	nova := fs.String("nova", "", "new password")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := c.app.Resources.Auth.AlterarSenha(ctx, core.AlterarSenha{SenhaAtual: *atual, NovaSenha: *nova}); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Password changed")
	return nil
}

func (c *command) me(ctx context.Context) error {
	snap := c.app.Session.Users.FetchUsuario(ctx)
	if err := c.app.Session.FetchErr(ctx, snap.Err, snap.Fetched); err != nil {
		return err
	}
	u := snap.Data.Usuario
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", u.ID)
	fmt.Fprintf(tw, "Nome\t%s\n", u.Nome)
	fmt.Fprintf(tw, "Email\t%s\n", u.Email)
	fmt.Fprintf(tw, "Carteira\t%s\n", snap.Data.CarteiraID)
	return tw.Flush()
}

func (c *command) usuario(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usuario needs a subcommand", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	users := c.app.Resources.Usuarios

	switch sub {
	case "criar":
		fs := newFlags("usuario criar")
		nome := fs.String("nome", "", "name")
		email := fs.String("email", "", "email")
		senha := fs.String("senha", "", "password")
		aceito := fs.Bool("aceito-termos", false, "accept the terms of use")
		if err := parse(fs, rest); err != nil {
			return err
		}
		u, err := users.Criar(ctx, core.NovoUsuario{Nome: *nome, Email: *email, Senha: *senha, AceitouTermos: *aceito})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created user %s (%s)\n", u.Email, u.ID)
		return nil

	case "atualizar":
		fs := newFlags("usuario atualizar")
		nome := fs.String("nome", "", "name")
		email := fs.String("email", "", "email")
		if err := parse(fs, rest); err != nil {
			return err
		}
		u, err := users.Atualizar(ctx, core.AtualizarUsuario{Nome: *nome, Email: *email})
		if err != nil {
			return err
		}
		c.app.Session.Users.Reset()
		fmt.Fprintf(c.out, "Updated user %s <%s>\n", u.Nome, u.Email)
		return nil

	case "remover":
		if err := users.Remover(ctx); err != nil {
			return err
		}
		c.app.Session.Reset()
		if err := c.app.Jar.Clear(ctx, c.app.base); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Account removed")
		return nil

	case "buscar":
		id, _, err := splitID("usuario buscar", rest)
		if err != nil {
			return err
		}
		u, err := users.BuscarPorID(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s\t%s\t%s\n", u.ID, u.Nome, u.Email)
		return nil

	default:
		return fmt.Errorf("%w: unknown usuario subcommand %q", ErrUsage, sub)
	}
}

func (c *command) termos(ctx context.Context) error {
	t, err := c.app.Resources.Termos.Atual(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Versao %s\n\n%s\n", t.Versao, t.Conteudo)
	return nil
}

func (c *command) categorias(ctx context.Context) error {
	snap := c.app.Session.Categories.FetchCategorias(ctx)
	if err := c.app.Session.FetchErr(ctx, snap.Err, snap.Fetched); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOME\tTIPO")
	for _, cat := range snap.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", cat.ID, cat.Nome, cat.Tipo)
	}
	return tw.Flush()
}

func (c *command) categoria(ctx context.Context, args []string) error {
	id, _, err := splitID("categoria", args)
	if err != nil {
		return err
	}
	cat := c.app.Session.Categories.BuscarPorID(ctx, id)
	if cat == nil {
		return fmt.Errorf("category %s not found", id)
	}
	fmt.Fprintf(c.out, "%s\t%s\t%s\n", cat.ID, cat.Nome, cat.Tipo)
	return nil
}

func (c *command) currentMonth() string {
	n := c.now()
	return core.Month(n.Year(), n.Month())
}

func (c *command) saldo(ctx context.Context, args []string) error {
	fs := newFlags("saldo")
	mes := fs.String("mes", c.currentMonth(), "month (YYYY-MM)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if _, err := time.Parse(core.MonthLayout, *mes); err != nil {
		return fmt.Errorf("%w: invalid month %q", ErrUsage, *mes)
	}

	carteira, err := c.app.Session.CarteiraID(ctx)
	if err != nil {
		return err
	}
	s, err := c.app.Resources.Carteira.Saldo(ctx, carteira, *mes)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Mes\t%s\n", s.Mes)
	fmt.Fprintf(tw, "Entradas\t%s\n", core.FormatReais(s.Entradas))
	fmt.Fprintf(tw, "Saidas\t%s\n", core.FormatReais(s.Saidas))
	fmt.Fprintf(tw, "Saldo\t%s\n", core.FormatReais(s.Saldo))
	if len(s.PorCategoria) > 0 {
		fmt.Fprintln(tw, "\t")
		for _, cv := range s.PorCategoria {
			fmt.Fprintf(tw, "%s\t%s\n", cv.Nome, core.FormatReais(cv.Total))
		}
	}
	return tw.Flush()
}

func (c *command) printLancamentos(ctx context.Context, itens []core.Lancamento) error {
	// Names are optional; a failed fetch falls back to ids.
	c.app.Session.Categories.FetchCategorias(ctx)

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATA\tTITULO\tTIPO\tCATEGORIA\tVALOR\tID")
	for _, l := range itens {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			l.Data, l.Titulo, l.Tipo, c.app.Session.Categories.Nome(l.CategoriaID), core.FormatReais(l.Valor), l.ID)
	}
	fmt.Fprintf(tw, "\t\t\tTotal\t%s\t\n", core.FormatReais(core.Total(itens)))
	return tw.Flush()
}

func (c *command) lancamentos(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: lancamentos needs a subcommand", ErrUsage)
	}
	sub, rest := args[0], args[1:]
	res := c.app.Resources.Lancamentos

	switch sub {
	case "listar":
		fs := newFlags("lancamentos listar")
		pagina := fs.Int("pagina", 1, "page")
		tamanho := fs.Int("tamanho", c.app.Config.PageSize, "page size")
		if err := parse(fs, rest); err != nil {
			return err
		}
		carteira, err := c.app.Session.CarteiraID(ctx)
		if err != nil {
			return err
		}
		p, err := res.Listar(ctx, carteira, *pagina, *tamanho)
		if err != nil {
			return err
		}
		if err := c.printLancamentos(ctx, p.Itens); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "pagina %d, %d de %d\n", p.Pagina, len(p.Itens), p.Total)
		return nil

	case "filtrar":
		f, err := parseFiltro(rest, c.app.Config.PageSize)
		if err != nil {
			return err
		}
		carteira, err := c.app.Session.CarteiraID(ctx)
		if err != nil {
			return err
		}
		p, err := res.Filtrar(ctx, carteira, f)
		if err != nil {
			return err
		}
		if err := c.printLancamentos(ctx, p.Itens); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "pagina %d, %d de %d\n", p.Pagina, len(p.Itens), p.Total)
		return nil

	case "buscar":
		id, _, err := splitID("lancamentos buscar", rest)
		if err != nil {
			return err
		}
		l, err := res.Buscar(ctx, id)
		if err != nil {
			return err
		}
		return c.printLancamentos(ctx, []core.Lancamento{l})

	case "adicionar":
		carteira, err := c.app.Session.CarteiraID(ctx)
		if err != nil {
			return err
		}
		n := core.NovoLancamento{
			Data:       core.Date{Time: c.now().UTC().Truncate(24 * time.Hour)},
			Tipo:       core.Saida,
			CarteiraID: carteira,
		}
		if err := applyLancamentoFlags(&n, "lancamentos adicionar", rest); err != nil {
			return err
		}
		l, err := res.Adicionar(ctx, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Created %s\n", l.ID)
		return nil

	case "atualizar":
		id, flags, err := splitID("lancamentos atualizar", rest)
		if err != nil {
			return err
		}
		cur, err := res.Buscar(ctx, id)
		if err != nil {
			return err
		}
		n := core.NovoLancamento{
			Titulo:      cur.Titulo,
			Descricao:   cur.Descricao,
			Valor:       cur.Valor,
			Data:        cur.Data,
			Tipo:        cur.Tipo,
			CategoriaID: cur.CategoriaID,
			CarteiraID:  cur.CarteiraID,
		}
		if n.CarteiraID == "" {
			if n.CarteiraID, err = c.app.Session.CarteiraID(ctx); err != nil {
				return err
			}
		}
		if err := applyLancamentoFlags(&n, "lancamentos atualizar", flags); err != nil {
			return err
		}
		if _, err := res.Atualizar(ctx, id, n); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Updated %s\n", id)
		return nil

	case "remover":
		id, _, err := splitID("lancamentos remover", rest)
		if err != nil {
			return err
		}
		if err := res.Remover(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Removed %s\n", id)
		return nil

	default:
		return fmt.Errorf("%w: unknown lancamentos subcommand %q", ErrUsage, sub)
	}
}

// applyLancamentoFlags overlays the flags that were set on n.
func applyLancamentoFlags(n *core.NovoLancamento, name string, args []string) error {
	fs := newFlags(name)
	titulo := fs.String("titulo", n.Titulo, "title")
	descricao := fs.String("descricao", n.Descricao, "description")
	valor := fs.String("valor", "", "amount, e.g. 12,34")
	data := fs.String("data", "", "date (YYYY-MM-DD)")
	tipo := fs.String("tipo", string(n.Tipo), "entrada or saida")
	categoria := fs.String("categoria", n.CategoriaID, "category id")
	if err := parse(fs, args); err != nil {
		return err
	}

	n.Titulo = *titulo
	n.Descricao = *descricao
	n.Tipo = core.TipoLancamento(*tipo)
	n.CategoriaID = *categoria
	if *valor != "" {
		v, err := core.ParseValor(*valor)
		if err != nil {
			return fmt.Errorf("valor %q: %w", *valor, err)
		}
		n.Valor = v
	}
	if *data != "" {
		d, err := core.ParseDate(*data)
		if err != nil {
			return err
		}
		n.Data = d
	}
	return nil
}

func parseFiltro(args []string, pageSize int) (core.FiltroLancamentos, error) {
	fs := newFlags("lancamentos filtrar")
	de := fs.String("de", "", "start date (YYYY-MM-DD)")
	ate := fs.String("ate", "", "end date (YYYY-MM-DD)")
	categoria := fs.String("categoria", "", "category id")
	titulo := fs.String("titulo", "", "title contains")
	tipo := fs.String("tipo", "", "entrada or saida")
	pagina := fs.Int("pagina", 1, "page")
	tamanho := fs.Int("tamanho", pageSize, "page size")
	if err := parse(fs, args); err != nil {
		return core.FiltroLancamentos{}, err
	}

	f := core.FiltroLancamentos{
		CategoriaID: *categoria,
		Titulo:      *titulo,
		Tipo:        core.TipoLancamento(*tipo),
		Pagina:      *pagina,
		Tamanho:     *tamanho,
	}
	var err error
	if *de != "" {
		if f.DataInicio, err = core.ParseDate(*de); err != nil {
			return f, err
		}
	}
	if *ate != "" {
		if f.DataFim, err = core.ParseDate(*ate); err != nil {
			return f, err
		}
	}
	return f, nil
}

// monthRange returns the first and last day of mes (YYYY-MM).
func monthRange(mes string) (core.Date, core.Date, error) {
	t, err := time.Parse(core.MonthLayout, mes)
	if err != nil {
		return core.Date{}, core.Date{}, fmt.Errorf("%w: invalid month %q", ErrUsage, mes)
	}
	first := core.Date{Time: t}
	last := core.Date{Time: t.AddDate(0, 1, -1)}
	return first, last, nil
}

// collectMonth pages through the filter endpoint until every lançamento of
// the month has been read.
func (c *command) collectMonth(ctx context.Context, carteira, mes string) ([]core.Lancamento, error) {
	first, last, err := monthRange(mes)
	if err != nil {
		return nil, err
	}
	var all []core.Lancamento
	for pagina := 1; ; pagina++ {
		p, err := c.app.Resources.Lancamentos.Filtrar(ctx, carteira, core.FiltroLancamentos{
			DataInicio: first,
			DataFim:    last,
			Pagina:     pagina,
			Tamanho:    c.app.Config.PageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pagina, err)
		}
		all = append(all, p.Itens...)
		if len(p.Itens) == 0 || len(all) >= p.Total {
			return all, nil
		}
	}
}

func (c *command) export(ctx context.Context, args []string) error {
	fs := newFlags("export")
	mes := fs.String("mes", c.currentMonth(), "month (YYYY-MM)")
	if err := parse(fs, args); err != nil {
		return err
	}

	carteira, err := c.app.Session.CarteiraID(ctx)
	if err != nil {
		return err
	}
	itens, err := c.collectMonth(ctx, carteira, *mes)
	if err != nil {
		return err
	}
	c.app.Session.Categories.FetchCategorias(ctx)

	exp, err := c.app.Exporter(ctx)
	if err != nil {
		return err
	}
	ref, err := exp.Export(ctx, sheets.Batch{
		Mes:         *mes,
		Lancamentos: itens,
		Categoria:   c.app.Session.Categories.Nome,
	})
	if err != nil {
		return err
	}

	applog.FromContext(ctx).InfoContext(ctx, "Export complete",
		applog.FieldOperation, applog.OpExport,
		applog.FieldMonth, *mes,
		applog.FieldCount, len(itens),
		applog.FieldSheetsRef, ref)

	// The memory backend lives only as long as the process, so print it.
	if mem, ok := exp.(*memory.Store); ok {
		w := csv.NewWriter(c.out)
		if err := w.WriteAll(mem.Rows(*mes)); err != nil {
			return err
		}
	}
	fmt.Fprintf(c.out, "Exported %d lancamentos to %s\n", len(itens), ref)
	return nil
}
