package manifest

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Hacerfak/CoreMDFeApp/internal/application/dto"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/entity"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/mdfe"
	"github.com/Hacerfak/CoreMDFeApp/internal/domain/repository"
	pkgmdfe "github.com/Hacerfak/CoreMDFeApp/pkg/mdfe"
)

// ProcessVersion verProc informado no ide.
const ProcessVersion = "CoreMDFe 1.0"

const maxTrailers = 3

// Assembler monta o manifesto a partir da requisição e dos padrões da empresa.
// Não persiste nada e não fala com a autoridade.
type Assembler struct {
	vehicles    repository.VehicleRepository
	drivers     repository.DriverRepository
	now         func() time.Time
	numericCode func() int
}

// NewAssembler constrói o montador com os cadastros de veículos e condutores.
func NewAssembler(vehicles repository.VehicleRepository, drivers repository.DriverRepository) *Assembler {
	return &Assembler{
		vehicles:    vehicles,
		drivers:     drivers,
		now:         time.Now,
		numericCode: func() int { return 11111111 + rand.IntN(88888888) },
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Assemble valida a requisição e devolve o manifesto em Drafting, ainda sem número.
// A primeira condição não atendida volta como ErrInvalidInput/ErrInvalidCode.
func (a *Assembler) Assemble(ctx context.Context, company *entity.Company, req dto.EmissionRequest) (*entity.Manifest, error) {
	if company == nil {
		return nil, domain.ErrCompanyNotConfigured
	}
	def := company.Defaults

	// ── carregamento posterior XOR documentos ──
	if req.DeferredLoading && len(req.Documents) > 0 {
		return nil, invalid("carregamento posterior não admite documentos vinculados")
	}
	if !req.DeferredLoading && len(req.Documents) == 0 {
		return nil, invalid("informe ao menos um documento ou marque carregamento posterior")
	}

	now := a.now()
	m := &entity.Manifest{
		ID:              uuid.New().String(),
		CompanyID:       company.ID,
		IssueDate:       now,
		NumericCode:     fmt.Sprintf("%08d", a.numericCode()),
		GreenChannel:    req.GreenChannel,
		DeferredLoading: req.DeferredLoading,
		TripStart:       req.TripStart,
		Status:          entity.StatusDrafting,
		AdditionalInfo:  firstNonEmpty(pkgmdfe.NormalizeText(req.AdditionalInfo), def.AdditionalInfo),
		TaxInfo:         firstNonEmpty(pkgmdfe.NormalizeText(req.TaxInfo), def.TaxInfo),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.IssueDate != nil && !req.IssueDate.IsZero() {
		m.IssueDate = *req.IssueDate
	}

	// ── códigos ──
	env, err := mdfe.ParseEnvironment(firstNonZero(req.Environment, company.Settings.Environment))
	if err != nil {
		return nil, err
	}
	emitter, err := mdfe.ParseEmitterType(firstNonZero(req.EmitterType, def.EmitterType, int(mdfe.EmitterOwnCargo)))
	if err != nil {
		return nil, err
	}
	transporter, err := mdfe.ParseTransporterType(firstNonZero(req.TransporterType, def.TransporterType))
	if err != nil {
		return nil, err
	}
	modal, err := mdfe.ParseModal(firstNonZero(req.Modal, def.Modal, int(mdfe.ModalRoad)))
	if err != nil {
		return nil, err
	}
	if modal != mdfe.ModalRoad {
		return nil, invalid("somente o modal rodoviário é suportado")
	}
	emission, err := mdfe.ParseEmissionType(firstNonZero(req.EmissionType, def.EmissionType, int(mdfe.EmissionNormal)))
	if err != nil {
		return nil, err
	}
	m.Environment, m.EmitterType, m.TransporterType = int(env), int(emitter), int(transporter)
	m.Modal, m.EmissionType = int(modal), int(emission)

	m.CargoUnit = firstNonEmpty(req.CargoUnit, def.CargoUnit, pkgmdfe.CargoUnitKG)
	if m.CargoUnit != pkgmdfe.CargoUnitKG && m.CargoUnit != pkgmdfe.CargoUnitTON {
		return nil, fmt.Errorf("%w: unidade de carga %q", domain.ErrInvalidCode, m.CargoUnit)
	}

	// ── documentos, municípios e totais ──
	var firstLoadUF, lastUnloadUF string
	if req.DeferredLoading {
		firstLoadUF, lastUnloadUF, err = a.deferredCities(m, req)
	} else {
		firstLoadUF, lastUnloadUF, err = a.documentCities(m, req.Documents)
	}
	if err != nil {
		return nil, err
	}

	// ── UFs ──
	origin, err := mdfe.ParseUF(firstNonEmpty(req.OriginUF, firstLoadUF))
	if err != nil {
		return nil, invalid("UF de início do percurso: %v", err)
	}
	dest, err := mdfe.ParseUF(firstNonEmpty(req.DestinationUF, lastUnloadUF))
	if err != nil {
		return nil, invalid("UF de fim do percurso: %v", err)
	}
	m.OriginUF, m.DestinationUF = origin.String(), dest.String()
	seen := map[string]bool{m.OriginUF: true, m.DestinationUF: true}
	for _, raw := range req.RouteUFs {
		uf, err := mdfe.ParseUF(raw)
		if err != nil {
			return nil, invalid("UF de percurso: %v", err)
		}
		if seen[uf.String()] {
			continue
		}
		seen[uf.String()] = true
		m.RouteLegs = append(m.RouteLegs, uf.String())
	}

	// ── produto predominante ──
	product := req.Product
	if product == nil {
		product = def.Product
	}
	if product != nil && product.Name != "" {
		ct, err := mdfe.ParseCargoType(product.CargoType)
		if err != nil {
			return nil, err
		}
		m.Product = &entity.CargoProduct{
			CargoType: string(ct),
			Name:      pkgmdfe.NormalizeText(product.Name),
			EAN:       product.EAN,
			NCM:       pkgmdfe.OnlyDigits(product.NCM),
		}
	}

	// ── veículos e condutor ──
	if err := a.assignVehicles(ctx, company, m, req); err != nil {
		return nil, err
	}
	if err := a.assignDriver(ctx, company, m, req); err != nil {
		return nil, err
	}

	// ── blocos opcionais ──
	if err := a.optionalGroups(company, m, req); err != nil {
		return nil, err
	}
	return m, nil
}

// documentCities agrupa documentos por município de carga e de descarga, na ordem
// em que aparecem, e soma os totais. Devolve a UF do primeiro carregamento e a do
// último descarregamento.
func (a *Assembler) documentCities(m *entity.Manifest, docs []dto.CargoDocumentInput) (string, string, error) {
	// municípios agrupados pelo código IBGE; vale o primeiro nome recebido
	loadIdx := map[string]bool{}
	unloadIdx := map[string]int{}
	keys := map[string]bool{}
	value, weight := decimal.Zero, decimal.Zero

	for i, d := range docs {
		key := pkgmdfe.OnlyDigits(d.AccessKey)
		if err := pkgmdfe.ValidateAccessKey(key); err != nil {
			return "", "", invalid("documento %d: %v", i+1, err)
		}
		if keys[key] {
			return "", "", invalid("documento %d: chave %s repetida", i+1, key)
		}
		keys[key] = true

		docType := d.Type
		if docType == 0 {
			docType, _ = strconv.Atoi(pkgmdfe.ModelFromAccessKey(key))
		}
		dt, err := mdfe.ParseDocumentType(docType)
		if err != nil {
			return "", "", err
		}
		if strconv.Itoa(int(dt)) != pkgmdfe.ModelFromAccessKey(key) {
			return "", "", invalid("documento %d: modelo %d não confere com a chave", i+1, dt)
		}
		if d.Value.IsNegative() || d.Weight.IsNegative() {
			return "", "", invalid("documento %d: valor e peso não podem ser negativos", i+1)
		}

		load, err := city(d.LoadCityCode, d.LoadCityName)
		if err != nil {
			return "", "", invalid("documento %d, município de carregamento: %v", i+1, err)
		}
		unload, err := city(d.UnloadCityCode, d.UnloadCityName)
		if err != nil {
			return "", "", invalid("documento %d, município de descarregamento: %v", i+1, err)
		}

		if !loadIdx[load.Code] {
			loadIdx[load.Code] = true
			m.LoadCities = append(m.LoadCities, load)
		}
		pos, found := unloadIdx[unload.Code]
		if !found {
			pos = len(m.UnloadCities)
			unloadIdx[unload.Code] = pos
			m.UnloadCities = append(m.UnloadCities, entity.UnloadCity{City: unload})
		}
		m.UnloadCities[pos].Documents = append(m.UnloadCities[pos].Documents, entity.CargoDocumentRef{
			Type:          int(dt),
			AccessKey:     key,
			SecondBarcode: d.SecondBarcode,
			Reentry:       d.Reentry,
		})

		switch dt {
		case mdfe.DocumentNFe:
			m.QtyNFe++
		case mdfe.DocumentCTe:
			m.QtyCTe++
		}
		value = value.Add(d.Value)
		weight = weight.Add(d.Weight)
	}
	m.TotalValue = value.Round(2)
	m.TotalWeight = weight.Round(4)

	firstLoadUF := docs[0].LoadUF
	if firstLoadUF == "" {
		firstLoadUF = ufFromCityCode(m.LoadCities[0].Code)
	}
	lastUnloadUF := docs[len(docs)-1].UnloadUF
	if lastUnloadUF == "" {
		lastUnloadUF = ufFromCityCode(m.UnloadCities[len(m.UnloadCities)-1].Code)
	}
	return firstLoadUF, lastUnloadUF, nil
}

// deferredCities carregamento posterior: municípios explícitos e totais informados.
func (a *Assembler) deferredCities(m *entity.Manifest, req dto.EmissionRequest) (string, string, error) {
	if len(req.LoadCities) == 0 {
		return "", "", invalid("carregamento posterior exige municípios de carregamento")
	}
	if len(req.UnloadCities) == 0 {
		return "", "", invalid("carregamento posterior exige municípios de descarregamento")
	}
	for _, c := range req.LoadCities {
		lc, err := city(c.Code, c.Name)
		if err != nil {
			return "", "", invalid("município de carregamento: %v", err)
		}
		m.LoadCities = append(m.LoadCities, lc)
	}
	for _, c := range req.UnloadCities {
		uc, err := city(c.Code, c.Name)
		if err != nil {
			return "", "", invalid("município de descarregamento: %v", err)
		}
		m.UnloadCities = append(m.UnloadCities, entity.UnloadCity{City: uc})
	}
	if req.TotalValue.IsNegative() || req.TotalWeight.IsNegative() {
		return "", "", invalid("valor e peso da carga não podem ser negativos")
	}
	m.TotalValue = req.TotalValue.Round(2)
	m.TotalWeight = req.TotalWeight.Round(4)

	firstLoadUF := firstNonEmpty(req.LoadCities[0].UF, ufFromCityCode(m.LoadCities[0].Code))
	last := req.UnloadCities[len(req.UnloadCities)-1]
	lastUnloadUF := firstNonEmpty(last.UF, ufFromCityCode(m.UnloadCities[len(m.UnloadCities)-1].Code))
	return firstLoadUF, lastUnloadUF, nil
}

func (a *Assembler) assignVehicles(ctx context.Context, company *entity.Company, m *entity.Manifest, req dto.EmissionRequest) error {
	var traction *entity.VehicleData
	switch {
	case req.Traction != nil:
		traction = req.Traction
	case req.TractionID != "" || company.Defaults.DefaultVehicleID != "":
		id := firstNonEmpty(req.TractionID, company.Defaults.DefaultVehicleID)
		v, err := a.vehicles.GetByID(ctx, company.ID, id)
		if err != nil {
			return fmt.Errorf("buscar veículo %s: %w", id, err)
		}
		if v == nil {
			return invalid("veículo de tração %s não encontrado", id)
		}
		traction = &v.VehicleData
	}
	if traction == nil {
		return invalid("veículo de tração é obrigatório")
	}
	tv, err := normalizeVehicle(*traction, true)
	if err != nil {
		return invalid("veículo de tração: %v", err)
	}
	m.Vehicles = append(m.Vehicles, entity.ManifestVehicle{Role: entity.VehicleTraction, VehicleData: tv})

	trailers := append([]entity.VehicleData(nil), req.Trailers...)
	for _, id := range req.TrailerIDs {
		v, err := a.vehicles.GetByID(ctx, company.ID, id)
		if err != nil {
			return fmt.Errorf("buscar reboque %s: %w", id, err)
		}
		if v == nil {
			return invalid("reboque %s não encontrado", id)
		}
		trailers = append(trailers, v.VehicleData)
	}
	if len(trailers) > maxTrailers {
		return invalid("no máximo %d reboques, informados %d", maxTrailers, len(trailers))
	}
	for i, t := range trailers {
		nv, err := normalizeVehicle(t, false)
		if err != nil {
			return invalid("reboque %d: %v", i+1, err)
		}
		if nv.Plate == tv.Plate {
			return invalid("reboque %d repete a placa da tração", i+1)
		}
		m.Vehicles = append(m.Vehicles, entity.ManifestVehicle{Role: entity.VehicleTrailer, VehicleData: nv})
	}
	return nil
}

func (a *Assembler) assignDriver(ctx context.Context, company *entity.Company, m *entity.Manifest, req dto.EmissionRequest) error {
	var name, cpf string
	switch {
	case req.Driver != nil:
		name, cpf = req.Driver.Name, req.Driver.CPF
	case req.DriverID != "" || company.Defaults.DefaultDriverID != "":
		id := firstNonEmpty(req.DriverID, company.Defaults.DefaultDriverID)
		d, err := a.drivers.GetByID(ctx, company.ID, id)
		if err != nil {
			return fmt.Errorf("buscar condutor %s: %w", id, err)
		}
		if d == nil {
			return invalid("condutor %s não encontrado", id)
		}
		name, cpf = d.Name, d.CPF
	default:
		return invalid("condutor é obrigatório")
	}
	d, err := normalizeDriver(name, cpf)
	if err != nil {
		return err
	}
	m.Drivers = []entity.ManifestDriver{d}
	return nil
}

func (a *Assembler) optionalGroups(company *entity.Company, m *entity.Manifest, req dto.EmissionRequest) error {
	for i, c := range req.CIOTs {
		doc := pkgmdfe.OnlyDigits(c.Document)
		if strings.TrimSpace(c.Code) == "" {
			return invalid("CIOT %d sem código", i+1)
		}
		if err := pkgmdfe.ValidateCPFOrCNPJ(doc); err != nil {
			return invalid("CIOT %d: %v", i+1, err)
		}
		m.CIOTs = append(m.CIOTs, entity.CIOT{Code: strings.TrimSpace(c.Code), Document: doc})
	}
	for i, t := range req.Tolls {
		if err := pkgmdfe.ValidateCNPJ(t.SupplierCNPJ); err != nil {
			return invalid("vale-pedágio %d, fornecedora: %v", i+1, err)
		}
		if !t.Value.IsPositive() {
			return invalid("vale-pedágio %d sem valor", i+1)
		}
		m.Tolls = append(m.Tolls, entity.Toll{
			SupplierCNPJ:   pkgmdfe.OnlyDigits(t.SupplierCNPJ),
			PayerDocument:  pkgmdfe.OnlyDigits(t.PayerDocument),
			PurchaseNumber: strings.TrimSpace(t.PurchaseNumber),
			Value:          t.Value.Round(2),
		})
	}
	for i, c := range req.Contractors {
		doc := pkgmdfe.OnlyDigits(c.Document)
		if err := pkgmdfe.ValidateCPFOrCNPJ(doc); err != nil {
			return invalid("contratante %d: %v", i+1, err)
		}
		m.Contractors = append(m.Contractors, entity.Contractor{Name: pkgmdfe.NormalizeText(c.Name), Document: doc})
	}

	payments := req.Payments
	if len(payments) == 0 && company.Defaults.Payment != nil {
		payments = []entity.Payment{*company.Defaults.Payment}
	}
	for i, p := range payments {
		p.Document = pkgmdfe.OnlyDigits(p.Document)
		if err := pkgmdfe.ValidateCPFOrCNPJ(p.Document); err != nil {
			return invalid("pagamento %d: %v", i+1, err)
		}
		if len(p.Components) == 0 {
			return invalid("pagamento %d sem componentes", i+1)
		}
		if p.BankCNPJ == "" && p.PIX == "" {
			return invalid("pagamento %d sem dados bancários (CNPJ da IPEF ou PIX)", i+1)
		}
		p.Name = pkgmdfe.NormalizeText(p.Name)
		m.Payments = append(m.Payments, p)
	}

	insurances := req.Insurances
	if len(insurances) == 0 && company.Defaults.Insurance != nil {
		insurances = []entity.Insurance{*company.Defaults.Insurance}
	}
	for i, s := range insurances {
		if s.ResponsibleType != 1 && s.ResponsibleType != 2 {
			return fmt.Errorf("%w: responsável pelo seguro %d (seguro %d)", domain.ErrInvalidCode, s.ResponsibleType, i+1)
		}
		s.ResponsibleDocument = pkgmdfe.OnlyDigits(s.ResponsibleDocument)
		s.InsurerCNPJ = pkgmdfe.OnlyDigits(s.InsurerCNPJ)
		s.InsurerName = pkgmdfe.NormalizeText(s.InsurerName)
		var endorsements []string
		for _, e := range s.Endorsements {
			if e = strings.TrimSpace(e); e != "" {
				endorsements = append(endorsements, e)
			}
		}
		s.Endorsements = endorsements
		m.Insurances = append(m.Insurances, s)
	}

	for _, d := range req.AuthorizedDownloaders {
		doc := pkgmdfe.OnlyDigits(d)
		if err := pkgmdfe.ValidateCPFOrCNPJ(doc); err != nil {
			return invalid("autorizado a baixar o XML: %v", err)
		}
		m.AuthorizedDownloaders = append(m.AuthorizedDownloaders, doc)
	}
	for _, s := range req.Seals {
		if s = strings.TrimSpace(s); s != "" {
			m.Seals = append(m.Seals, s)
		}
	}
	return nil
}

// BuildDocument converte o manifesto numerado no documento tipado, com a chave
// de acesso calculada localmente no Id. Grupos sem conteúdo ficam nil.
func (a *Assembler) BuildDocument(company *entity.Company, m *entity.Manifest) (*mdfe.Document, error) {
	if m.Number <= 0 {
		return nil, invalid("manifesto sem número reservado")
	}
	issuerUF, err := mdfe.ParseUF(firstNonEmpty(company.Settings.IssuerUF, company.UF))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCompanyNotConfigured, err)
	}
	code, err := strconv.Atoi(m.NumericCode)
	if err != nil {
		return nil, invalid("código numérico %q", m.NumericCode)
	}
	key, err := pkgmdfe.BuildAccessKey(pkgmdfe.AccessKeyParams{
		UFCode:       issuerUF.Code(),
		IssueDate:    m.IssueDate,
		CNPJ:         company.CNPJ,
		Model:        pkgmdfe.ModelMDFe,
		Series:       m.Series,
		Number:       m.Number,
		EmissionType: m.EmissionType,
		NumericCode:  code,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	info := mdfe.Info{
		Version: pkgmdfe.LayoutVersion,
		ID:      "MDFe" + key,
		Ide: mdfe.Ide{
			UFCode:          issuerUF.Code(),
			Environment:     m.Environment,
			EmitterType:     m.EmitterType,
			TransporterType: m.TransporterType,
			Model:           pkgmdfe.ModelMDFe,
			Series:          m.Series,
			Number:          m.Number,
			NumericCode:     m.NumericCode,
			CheckDigit:      key[43:],
			Modal:           m.Modal,
			IssuedAt:        m.IssueDate.Format(time.RFC3339),
			EmissionType:    m.EmissionType,
			ProcessType:     0,
			ProcessVersion:  ProcessVersion,
			OriginUF:        m.OriginUF,
			DestinationUF:   m.DestinationUF,
		},
		Emit:   emitFromCompany(company),
		Modal:  mdfe.ModalInfo{Version: pkgmdfe.ModalVersion, Road: roadFromManifest(company, m)},
		Totals: totalsFromManifest(m),
	}
	for _, c := range m.LoadCities {
		info.Ide.LoadCities = append(info.Ide.LoadCities, mdfe.LoadCity{Code: c.Code, Name: c.Name})
	}
	for _, uf := range m.RouteLegs {
		info.Ide.Route = append(info.Ide.Route, mdfe.RouteLeg{UF: uf})
	}
	if m.TripStart != nil {
		info.Ide.TripStart = m.TripStart.Format(time.RFC3339)
	}
	if m.GreenChannel {
		info.Ide.GreenChannel = "1"
	}
	if m.DeferredLoading {
		info.Ide.DeferredLoading = "1"
	}

	for _, uc := range m.UnloadCities {
		group := mdfe.UnloadCity{Code: uc.Code, Name: uc.Name}
		for _, d := range uc.Documents {
			ref := mdfe.DocRef{Model: mdfe.DocumentType(d.Type), Key: d.AccessKey, SecondBarcode: d.SecondBarcode, Reentry: d.Reentry}
			if ref.Model == mdfe.DocumentCTe {
				group.CTe = append(group.CTe, ref)
			} else {
				group.NFe = append(group.NFe, ref)
			}
		}
		info.Docs.UnloadCities = append(info.Docs.UnloadCities, group)
	}

	for _, s := range m.Insurances {
		seg := mdfe.Insurance{
			Responsible:  mdfe.InsuranceResponsible{Type: s.ResponsibleType},
			Policy:       s.Policy,
			Endorsements: s.Endorsements,
		}
		if s.ResponsibleType == 2 {
			seg.Responsible.CPF, seg.Responsible.CNPJ = splitDocument(s.ResponsibleDocument)
		}
		if s.InsurerName != "" || s.InsurerCNPJ != "" {
			seg.Insurer = &mdfe.Insurer{Name: s.InsurerName, CNPJ: s.InsurerCNPJ}
		}
		info.Insurance = append(info.Insurance, seg)
	}
	if m.Product != nil {
		info.Product = &mdfe.Product{CargoType: m.Product.CargoType, Name: m.Product.Name, EAN: m.Product.EAN, NCM: m.Product.NCM}
	}
	for _, s := range m.Seals {
		info.Seals = append(info.Seals, mdfe.Seal{Number: s})
	}
	for _, d := range m.AuthorizedDownloaders {
		cpf, cnpj := splitDocument(d)
		info.AuthorizedXML = append(info.AuthorizedXML, mdfe.AuthorizedXML{CPF: cpf, CNPJ: cnpj})
	}
	if m.AdditionalInfo != "" || m.TaxInfo != "" {
		info.Additional = &mdfe.Additional{Fisco: m.TaxInfo, Complementary: m.AdditionalInfo}
	}
	if t := company.TechResponsible; t != nil && t.CNPJ != "" {
		info.TechResponsible = &mdfe.TechResponsible{
			CNPJ: pkgmdfe.OnlyDigits(t.CNPJ), Contact: t.Name, Email: t.Email, Phone: pkgmdfe.OnlyDigits(t.Phone),
		}
	}

	return &mdfe.Document{Xmlns: pkgmdfe.Namespace, Info: info}, nil
}

func emitFromCompany(c *entity.Company) mdfe.Emit {
	return mdfe.Emit{
		CNPJ:      pkgmdfe.OnlyDigits(c.CNPJ),
		IE:        pkgmdfe.OnlyDigits(c.IE),
		Name:      pkgmdfe.NormalizeText(c.Name),
		TradeName: pkgmdfe.NormalizeText(c.TradeName),
		Address: mdfe.Address{
			Street:     pkgmdfe.NormalizeText(c.Street),
			Number:     firstNonEmpty(strings.TrimSpace(c.Number), "SN"),
			Complement: pkgmdfe.NormalizeText(c.Complement),
			District:   pkgmdfe.NormalizeText(c.District),
			CityCode:   c.CityCode,
			CityName:   pkgmdfe.NormalizeName(c.CityName),
			ZIP:        pkgmdfe.OnlyDigits(c.ZIP),
			UF:         strings.ToUpper(c.UF),
			Phone:      pkgmdfe.OnlyDigits(c.Phone),
			Email:      strings.TrimSpace(c.Email),
		},
	}
}

func roadFromManifest(c *entity.Company, m *entity.Manifest) *mdfe.Road {
	road := &mdfe.Road{}

	rntrc := pkgmdfe.OnlyDigits(c.RNTRC)
	antt := &mdfe.ANTT{RNTRC: rntrc}
	for _, ci := range m.CIOTs {
		cpf, cnpj := splitDocument(ci.Document)
		antt.CIOT = append(antt.CIOT, mdfe.CIOT{Code: ci.Code, CPF: cpf, CNPJ: cnpj})
	}
	if len(m.Tolls) > 0 {
		toll := &mdfe.Toll{}
		for _, t := range m.Tolls {
			cpf, cnpj := splitDocument(t.PayerDocument)
			toll.Items = append(toll.Items, mdfe.TollItem{
				SupplierCNPJ: t.SupplierCNPJ, PayerCNPJ: cnpj, PayerCPF: cpf,
				PurchaseNumber: t.PurchaseNumber, Value: t.Value.StringFixed(2),
			})
		}
		antt.Toll = toll
	}
	for _, ct := range m.Contractors {
		cpf, cnpj := splitDocument(ct.Document)
		antt.Contractors = append(antt.Contractors, mdfe.Contractor{Name: ct.Name, CPF: cpf, CNPJ: cnpj})
	}
	for _, p := range m.Payments {
		cpf, cnpj := splitDocument(p.Document)
		pay := mdfe.Payment{
			Name: p.Name, CPF: cpf, CNPJ: cnpj,
			Total: p.Total.StringFixed(2), Indicator: p.Indicator,
			Bank: mdfe.PaymentBank{CNPJIPEF: pkgmdfe.OnlyDigits(p.BankCNPJ), PIX: p.PIX},
		}
		if p.Advance.IsPositive() {
			pay.Advance = p.Advance.StringFixed(2)
		}
		for _, comp := range p.Components {
			pay.Components = append(pay.Components, mdfe.PaymentComponent{Type: comp.Type, Value: comp.Value.StringFixed(2)})
		}
		antt.Payments = append(antt.Payments, pay)
	}
	if antt.RNTRC != "" || len(antt.CIOT) > 0 || antt.Toll != nil || len(antt.Contractors) > 0 || len(antt.Payments) > 0 {
		road.ANTT = antt
	}

	if t := m.Traction(); t != nil {
		road.Traction = mdfe.Traction{
			InternalCode: t.InternalCode,
			Plate:        t.Plate,
			Renavam:      t.Renavam,
			Tare:         t.Tare,
			CapacityKG:   t.CapacityKG,
			CapacityM3:   t.CapacityM3,
			Owner:        ownerXML(t.Owner),
			WheelType:    t.WheelType,
			BodyType:     t.BodyType,
			UF:           t.UF,
		}
	}
	for _, d := range m.Drivers {
		road.Traction.Drivers = append(road.Traction.Drivers, mdfe.Driver{Name: d.Name, CPF: d.CPF})
	}
	for _, t := range m.Trailers() {
		road.Trailers = append(road.Trailers, mdfe.Trailer{
			InternalCode: t.InternalCode,
			Plate:        t.Plate,
			Renavam:      t.Renavam,
			Tare:         t.Tare,
			CapacityKG:   t.CapacityKG,
			CapacityM3:   t.CapacityM3,
			Owner:        ownerXML(t.Owner),
			BodyType:     t.BodyType,
			UF:           t.UF,
		})
	}
	return road
}

func totalsFromManifest(m *entity.Manifest) mdfe.Totals {
	return mdfe.Totals{
		QtyCTe:   m.QtyCTe,
		QtyNFe:   m.QtyNFe,
		Value:    m.TotalValue.StringFixed(2),
		Unit:     m.CargoUnit,
		Quantity: m.TotalWeight.StringFixed(4),
	}
}

func ownerXML(o *entity.VehicleOwner) *mdfe.Owner {
	if o == nil || o.Document == "" {
		return nil
	}
	cpf, cnpj := splitDocument(o.Document)
	return &mdfe.Owner{
		CPF: cpf, CNPJ: cnpj, RNTRC: pkgmdfe.OnlyDigits(o.RNTRC), Name: pkgmdfe.NormalizeText(o.Name),
		IE: firstNonEmpty(pkgmdfe.OnlyDigits(o.IE), "ISENTO"), UF: strings.ToUpper(o.UF), Type: o.Type,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Normalização
// ─────────────────────────────────────────────────────────────────────────────

func normalizeVehicle(v entity.VehicleData, traction bool) (entity.VehicleData, error) {
	v.Plate = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(v.Plate), "-", ""))
	if len(v.Plate) < 7 {
		return v, fmt.Errorf("placa %q inválida", v.Plate)
	}
	if v.Tare <= 0 {
		return v, fmt.Errorf("tara obrigatória")
	}
	v.Renavam = pkgmdfe.OnlyDigits(v.Renavam)
	if v.UF != "" {
		uf, err := mdfe.ParseUF(v.UF)
		if err != nil {
			return v, err
		}
		v.UF = uf.String()
	}
	if v.BodyType == "" {
		v.BodyType = "00"
	}
	if !mdfe.ValidBodyType(v.BodyType) {
		return v, fmt.Errorf("%w: tipo de carroceria %q", domain.ErrInvalidCode, v.BodyType)
	}
	if traction {
		if v.WheelType == "" {
			v.WheelType = "99"
		}
		if !mdfe.ValidWheelType(v.WheelType) {
			return v, fmt.Errorf("%w: tipo de rodado %q", domain.ErrInvalidCode, v.WheelType)
		}
	} else {
		v.WheelType = ""
		if v.CapacityKG <= 0 {
			return v, fmt.Errorf("capacidade em KG obrigatória para reboque")
		}
	}
	return v, nil
}

// normalizeDriver limpa o CPF (pontos e traço) e valida os dígitos.
func normalizeDriver(name, cpf string) (entity.ManifestDriver, error) {
	name = pkgmdfe.NormalizeText(name)
	if name == "" {
		return entity.ManifestDriver{}, invalid("nome do condutor é obrigatório")
	}
	clean := strings.NewReplacer(".", "", "-", "", " ", "").Replace(cpf)
	if clean == "" {
		return entity.ManifestDriver{}, invalid("CPF do condutor é obrigatório")
	}
	if err := pkgmdfe.ValidateCPF(clean); err != nil {
		return entity.ManifestDriver{}, invalid("CPF do condutor: %v", err)
	}
	return entity.ManifestDriver{Name: strings.ToUpper(name), CPF: clean}, nil
}

func city(code, name string) (entity.City, error) {
	code = pkgmdfe.OnlyDigits(code)
	if len(code) != 7 {
		return entity.City{}, fmt.Errorf("código IBGE %q deve ter 7 dígitos", code)
	}
	if ufFromCityCode(code) == "" {
		return entity.City{}, fmt.Errorf("código IBGE %q com UF inexistente", code)
	}
	name = pkgmdfe.NormalizeName(name)
	if name == "" {
		return entity.City{}, fmt.Errorf("nome do município é obrigatório")
	}
	return entity.City{Code: code, Name: name}, nil
}

// ufFromCityCode os dois primeiros dígitos do código IBGE do município são o código da UF.
func ufFromCityCode(code string) string {
	if len(code) < 2 {
		return ""
	}
	n, err := strconv.Atoi(code[:2])
	if err != nil {
		return ""
	}
	return pkgmdfe.UFByCode[n]
}

// splitDocument devolve (cpf, cnpj) conforme o tamanho.
func splitDocument(doc string) (string, string) {
	doc = pkgmdfe.OnlyDigits(doc)
	if len(doc) == 11 {
		return doc, ""
	}
	if doc == "" {
		return "", ""
	}
	return "", doc
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
