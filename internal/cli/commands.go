package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/application/manifest"
	"github.com/Hacerfak/CoreMDFeApp/internal/infrastructure/sefaz"
	"github.com/Hacerfak/CoreMDFeApp/pkg/jwt"
)

// ─── banco ───────────────────────────────────────────────────────────────────

func (c *CLI) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica as migrações pendentes do banco",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ran, err := c.Migrate(cmd.Context(), c.cfg, c.log)
			if err != nil {
				return err
			}
			if len(ran) == 0 {
				fmt.Fprintln(c.Out, "nenhuma migração pendente")
				return nil
			}
			for _, v := range ran {
				fmt.Fprintln(c.Out, "aplicada:", v)
			}
			return nil
		},
	}
}

// ─── ciclo de vida ───────────────────────────────────────────────────────────

func (c *CLI) emitCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Emite um MDF-e a partir de um arquivo YAML",
		Long: `Lê a requisição de emissão em YAML (mesmos campos do JSON da API) e transmite.

Exemplo de arquivo:
  origin_uf: GO
  destination_uf: SP
  traction_id: 6f1c...
  driver: {name: Ana Souza, cpf: "52998224725"}
  documents:
    - type: 55
      access_key: "5226..."
      value: 1500.50
      weight: 1000
      load_city_code: "5208707"
      load_city_name: GOIANIA
      unload_city_code: "3550308"
      unload_city_name: SAO PAULO`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readEmission(file)
			if err != nil {
				return err
			}
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			res, err := uc.Emit(cmd.Context(), companyID, req)
			return c.printResult(res, err)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "arquivo YAML da emissão (- para stdin)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readEmission(path string) (dto.EmissionRequest, error) {
	var req dto.EmissionRequest
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("ler %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, fmt.Errorf("YAML inválido em %s: %w", path, err)
	}
	return req, nil
}

func (c *CLI) resendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resend <manifesto>",
		Short: "Reenvia um MDF-e a partir do XML armazenado",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			res, err := uc.Resend(cmd.Context(), companyID, args[0])
			return c.printResult(res, err)
		},
	}
}

func (c *CLI) cancelCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <manifesto>",
		Short: "Cancela um MDF-e autorizado (evento 110111)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			res, err := uc.Cancel(cmd.Context(), companyID, args[0], reason)
			return c.printResult(res, err)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "justificativa (15 a 255 caracteres)")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func (c *CLI) closeCmd() *cobra.Command {
	var in dto.ClosureRequest
	var date string
	cmd := &cobra.Command{
		Use:   "close <manifesto>",
		Short: "Encerra um MDF-e autorizado (evento 110112)",
		Long:  "Sem --uf/--city, encerra no último município de descarregamento; sem --date, hoje.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				t, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("--date deve estar em AAAA-MM-DD")
				}
				in.ClosedOn = &t
			}
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			res, err := uc.Close(cmd.Context(), companyID, args[0], in)
			return c.printResult(res, err)
		},
	}
	cmd.Flags().StringVar(&in.UF, "uf", "", "UF do encerramento")
	cmd.Flags().StringVar(&in.CityCode, "city", "", "código IBGE do município de encerramento")
	cmd.Flags().StringVar(&date, "date", "", "data do encerramento (AAAA-MM-DD)")
	return cmd
}

func (c *CLI) addDriverCmd() *cobra.Command {
	var in dto.AddDriverRequest
	cmd := &cobra.Command{
		Use:   "add-driver <manifesto>",
		Short: "Inclui condutor num MDF-e autorizado (evento 110114)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			res, err := uc.AddDriver(cmd.Context(), companyID, args[0], in)
			return c.printResult(res, err)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "nome do condutor")
	cmd.Flags().StringVar(&in.CPF, "cpf", "", "CPF do condutor")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("cpf")
	return cmd
}

func (c *CLI) addDocumentCmd() *cobra.Command {
	var in dto.AddDocumentRequest
	cmd := &cobra.Command{
		Use:   "add-document <manifesto>",
		Short: "Inclui NF-e num MDF-e autorizado (evento 110115)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			res, err := uc.AddDocument(cmd.Context(), companyID, args[0], in)
			return c.printResult(res, err)
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.NFeKey, "nfe-key", "", "chave de acesso da NF-e")
	f.StringVar(&in.LoadCityCode, "load-city", "", "código IBGE do município de carregamento")
	f.StringVar(&in.LoadCityName, "load-city-name", "", "nome do município de carregamento")
	f.StringVar(&in.UnloadCityCode, "unload-city", "", "código IBGE do município de descarregamento")
	f.StringVar(&in.UnloadCityName, "unload-city-name", "", "nome do município de descarregamento")
	_ = cmd.MarkFlagRequired("nfe-key")
	_ = cmd.MarkFlagRequired("unload-city")
	return cmd
}

// ─── consultas ───────────────────────────────────────────────────────────────

func (c *CLI) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Consulta o status do serviço MDF-e da UF do emitente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			st, err := uc.ServiceStatus(cmd.Context(), companyID)
			if err != nil {
				return err
			}
			state := "fora do ar"
			if st.Online {
				state = "em operação"
			}
			fmt.Fprintf(c.Out, "%s: %d %s (tempo médio %d ms)\n", state, st.StatusCode, st.Reason, st.AverageTimeMS)
			return nil
		},
	}
}

func (c *CLI) pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Lista os MDF-e autorizados e não encerrados na SEFAZ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := uc.PendingClosures(cmd.Context(), companyID)
			if err != nil {
				return err
			}
			if len(resp.Items) == 0 {
				fmt.Fprintf(c.Out, "nenhum MDF-e pendente (%d %s)\n", resp.StatusCode, resp.Reason)
				return nil
			}
			w := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CHAVE\tPROTOCOLO\tMANIFESTO")
			for _, p := range resp.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.AccessKey, p.Protocol, orDash(p.ManifestID))
			}
			return w.Flush()
		},
	}
}

func (c *CLI) listCmd() *cobra.Command {
	var in dto.ManifestListRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista manifestos da empresa",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, companyID, err := c.manifests(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.List(cmd.Context(), companyID, in)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNÚMERO\tEMISSÃO\tSTATUS\tROTA\tCHAVE")
			for _, m := range out.Items {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s→%s\t%s\n",
					m.ID, m.Number, m.IssueDate.Format("02/01/2006"), m.Status,
					m.OriginUF, m.DestinationUF, orDash(m.AccessKey))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "%d de %d\n", len(out.Items), out.Page.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Status, "status", "", "filtrar por status")
	f.StringVar(&in.From, "from", "", "emitidos a partir de (AAAA-MM-DD)")
	f.StringVar(&in.To, "to", "", "emitidos até (AAAA-MM-DD)")
	f.StringVarP(&in.Search, "query", "q", "", "chave, número ou UF")
	f.IntVar(&in.Limit, "limit", 20, "máximo de linhas")
	f.IntVar(&in.Offset, "offset", 0, "deslocamento")
	return cmd
}

// ─── empresas ────────────────────────────────────────────────────────────────

func (c *CLI) companyCmd() *cobra.Command {
	company := &cobra.Command{Use: "company", Short: "Cadastro de empresas emitentes"}

	var in dto.ProvisionCompanyRequest
	var series int
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Cadastra o emitente a partir do certificado A1 e inicia a numeração",
		Long: `O CNPJ é lido do certificado. --start-number é o último nMDF já usado
pelo emitente em outro sistema; a próxima emissão recebe esse número + 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.CertificatePath == "" {
				return sefaz.ErrNoCertificate
			}
			if cmd.Flags().Changed("series") {
				in.Series = &series
			}
			in.ID = c.companyID
			uc, err := c.companies(cmd.Context())
			if err != nil {
				return err
			}
			out, err := uc.Provision(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "empresa cadastrada\n  ID:     %s\n  CNPJ:   %s\n  série:  %d\n  próximo nMDF: %d\n",
				out.ID, out.CNPJ, out.Series, out.LastNumberIssued+1)
			return nil
		},
	}
	f := initCmd.Flags()
	f.StringVar(&in.CertificatePath, "cert", "", "arquivo .pfx/.p12 do emitente")
	f.StringVar(&in.CertificatePassword, "password", os.Getenv("MDFE_CERT_PASSWORD"), "senha (ou MDFE_CERT_PASSWORD)")
	f.StringVar(&in.CNPJ, "cnpj", "", "confere com o CNPJ do certificado")
	f.StringVar(&in.Name, "name", "", "razão social")
	f.StringVar(&in.TradeName, "trade-name", "", "nome fantasia")
	f.StringVar(&in.IE, "ie", "", "inscrição estadual")
	f.StringVar(&in.RNTRC, "rntrc", "", "RNTRC (8 dígitos)")
	f.StringVar(&in.UF, "uf", "", "UF do emitente")
	f.StringVar(&in.CityCode, "city-code", "", "código IBGE do município")
	f.StringVar(&in.CityName, "city", "", "município")
	f.IntVar(&in.Environment, "environment", 2, "1 produção, 2 homologação")
	f.IntVar(&series, "series", 1, "série do MDF-e (0 a 999)")
	f.Int64Var(&in.LastNumberIssued, "start-number", 0, "último nMDF já emitido")
	f.BoolVar(&in.SaveXML, "save-xml", false, "arquivar os XML enviados e recebidos")

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista as empresas cadastradas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, err := c.companies(cmd.Context())
			if err != nil {
				return err
			}
			items, err := uc.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(c.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCNPJ\tRAZÃO SOCIAL\tUF\tAMB\tSÉRIE\tÚLTIMO")
			for _, e := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
					e.ID, e.CNPJ, e.Name, e.UF, e.Environment, e.Series, e.LastNumberIssued)
			}
			return w.Flush()
		},
	}

	company.AddCommand(initCmd, list)
	return company
}

// ─── utilitários ─────────────────────────────────────────────────────────────

func (c *CLI) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <arquivo.xml>...",
		Short: "Lê XMLs de NF-e/CT-e e imprime a lista documents: em YAML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines := make([]dto.CargoDocumentInput, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				line, err := manifest.ImportCargoDocument(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				lines = append(lines, line.CargoDocumentInput)
			}
			enc := yaml.NewEncoder(c.Out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(map[string]any{"documents": lines})
		},
	}
}

func (c *CLI) certCmd() *cobra.Command {
	cert := &cobra.Command{Use: "cert", Short: "Certificado digital A1"}

	var path, password string
	check := &cobra.Command{
		Use:   "check",
		Short: "Valida o arquivo PFX: senha, validade e CNPJ do titular",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				return sefaz.ErrNoCertificate
			}
			crt, err := c.LoadCert(path, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.Out, "certificado válido\n  CNPJ:     %s\n  validade: %s (%d dias)\n",
				orDash(crt.SubjectCNPJ), crt.NotAfter.Format("02/01/2006"),
				int(time.Until(crt.NotAfter).Hours()/24))
			return nil
		},
	}
	check.Flags().StringVar(&path, "path", "", "arquivo .pfx/.p12")
	check.Flags().StringVar(&password, "password", os.Getenv("MDFE_CERT_PASSWORD"), "senha (ou MDFE_CERT_PASSWORD)")
	cert.AddCommand(check)
	return cert
}

func (c *CLI) tokenCmd() *cobra.Command {
	var user, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Gera um token de acesso à API para a empresa de --company",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.companyID == "" {
				return fmt.Errorf("informe --company ou MDFE_COMPANY_ID")
			}
			tok, err := jwt.Generate(c.cfg.JWT.Secret, user, c.companyID, role, c.cfg.JWT.Issuer, c.cfg.JWT.Expiration)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "cli", "identificação do usuário no token")
	cmd.Flags().StringVar(&role, "role", jwt.RoleEmissor, "papel: admin, emissor ou consulta")
	return cmd
}

func (c *CLI) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Mostra a versão",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.Out, "mdfe %s (%s)\n", Version, runtime.Version())
		},
	}
}

// ─── saída ───────────────────────────────────────────────────────────────────

// printResult imprime o desfecho; falha prevista vira erro para o código de saída.
func (c *CLI) printResult(res *manifest.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("falha (%s): %s", res.Kind, res.Message)
	}
	var b strings.Builder
	b.WriteString("ok: " + res.Message + "\n")
	if res.ManifestID != "" {
		b.WriteString("  manifesto: " + res.ManifestID + "\n")
	}
	if res.AccessKey != "" {
		b.WriteString("  chave:     " + res.AccessKey + "\n")
	}
	if res.Protocol != "" {
		b.WriteString("  protocolo: " + res.Protocol + "\n")
	}
	_, werr := fmt.Fprint(c.Out, b.String())
	return werr
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
