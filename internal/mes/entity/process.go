package entity

// 工序代码
const (
	ProcessCA = "CA" // 切压
	ProcessCQ = "CQ" // 压接检查
	ProcessMS = "MS" // 中剥
	ProcessMC = "MC" // 手动压接
	ProcessSB = "SB" // 组立
	ProcessHS = "HS" // 热缩
	ProcessSP = "SP" // 配膳
	ProcessPA = "PA" // 总装
	ProcessCI = "CI" // 导通检查
	ProcessVI = "VI" // 外观检查
)

// ProcessDefinition 工序定义（静态基础数据，启动时装载）
type ProcessDefinition struct {
	Code             string `json:"code" gorm:"primaryKey;size:8"`
	Name             string `json:"name" gorm:"size:64;not null"`
	Seq              int    `json:"seq" gorm:"not null;uniqueIndex"` // 工艺流程顺序
	HasMaterialInput bool   `json:"has_material_input"`
	IsInspection     bool   `json:"is_inspection"`
	ShortCode        string `json:"short_code" gorm:"size:2;not null"` // 批次号中的工序简码
}

func (ProcessDefinition) TableName() string {
	return "mes_process_definitions"
}

// ProcessSeed 内置工序表
func ProcessSeed() []ProcessDefinition {
	return []ProcessDefinition{
		{Code: ProcessCA, Name: "切压", Seq: 10, HasMaterialInput: true, ShortCode: "C"},
		{Code: ProcessCQ, Name: "压接检查", Seq: 20, IsInspection: true, ShortCode: "Q"},
		{Code: ProcessMS, Name: "中剥", Seq: 30, ShortCode: "S"},
		{Code: ProcessMC, Name: "手动压接", Seq: 40, HasMaterialInput: true, ShortCode: "M"},
		{Code: ProcessSB, Name: "组立", Seq: 50, HasMaterialInput: true, ShortCode: "B"},
		{Code: ProcessHS, Name: "热缩", Seq: 60, HasMaterialInput: true, ShortCode: "H"},
		{Code: ProcessSP, Name: "配膳", Seq: 70, HasMaterialInput: true, ShortCode: "P"},
		{Code: ProcessPA, Name: "总装", Seq: 80, HasMaterialInput: true, ShortCode: "A"},
		{Code: ProcessCI, Name: "导通检查", Seq: 90, IsInspection: true, ShortCode: "I"},
		{Code: ProcessVI, Name: "外观检查", Seq: 100, IsInspection: true, ShortCode: "V"},
	}
}

// CrimpTargets 需要压接检查合格后才能流转的工序
var CrimpTargets = map[string]bool{
	ProcessCA: true,
	ProcessMC: true,
}

// SPAdmissible 允许投入配膳（SP）工序的工序
var SPAdmissible = map[string]bool{
	ProcessCA: true,
	ProcessMS: true,
	ProcessMC: true,
	ProcessSB: true,
	ProcessHS: true,
}
