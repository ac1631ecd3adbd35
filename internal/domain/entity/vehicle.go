package entity

import "time"

// VehicleData dados de um veículo rodoviário como vão para veicTracao/veicReboque.
type VehicleData struct {
	InternalCode string        `json:"internal_code,omitempty" yaml:"internal_code"`
	Plate        string        `json:"plate" yaml:"plate"`
	Renavam      string        `json:"renavam,omitempty" yaml:"renavam"`
	Tare         int           `json:"tare" yaml:"tare"`
	CapacityKG   int           `json:"capacity_kg" yaml:"capacity_kg"`
	CapacityM3   int           `json:"capacity_m3,omitempty" yaml:"capacity_m3"`
	WheelType    string        `json:"wheel_type,omitempty" yaml:"wheel_type"` // tpRod, só tração
	BodyType     string        `json:"body_type" yaml:"body_type"`             // tpCar
	UF           string        `json:"uf,omitempty" yaml:"uf"`
	Owner        *VehicleOwner `json:"owner,omitempty" yaml:"owner"`
}

// VehicleOwner proprietário quando o veículo não é do emitente. Type: 0 TAC agregado,
// 1 TAC independente, 2 outros.
type VehicleOwner struct {
	Document string `json:"document" yaml:"document"`
	RNTRC    string `json:"rntrc" yaml:"rntrc"`
	Name     string `json:"name" yaml:"name"`
	IE       string `json:"ie,omitempty" yaml:"ie"`
	UF       string `json:"uf" yaml:"uf"`
	Type     int    `json:"type" yaml:"type"`
}

// Vehicle cadastro de veículo da empresa (somente leitura neste serviço).
type Vehicle struct {
	ID        string
	CompanyID string
	VehicleData
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Driver cadastro de condutor da empresa (somente leitura neste serviço).
type Driver struct {
	ID        string
	CompanyID string
	Name      string
	CPF       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
