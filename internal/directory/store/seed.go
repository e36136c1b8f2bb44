package store

import (
	"context"
	"fmt"

	"reviewdraw/internal/directory/models"
)

// Writer accepts directory rows. Both directory backends implement it.
type Writer interface {
	PutCategory(ctx context.Context, c models.Category) error
	PutExpert(ctx context.Context, e models.Expert) error
}

// SeedCategories is the bootstrap category set.
var SeedCategories = []models.Category{
	{ID: "cat001", Name: "技术类"},
	{ID: "cat002", Name: "经济类"},
	{ID: "cat003", Name: "医学类"},
	{ID: "cat004", Name: "监督员"},
}

const seedUnit = "平顶山学院"

// SeedExperts is the bootstrap expert set. Two cat001 experts are out of service.
var SeedExperts = []models.Expert{
	{ID: "410402197001151234", Name: "张三", CategoryID: "cat001", InService: true, Gender: models.GenderMale, BirthDate: "1970-01-15", WorkUnit: seedUnit, Department: "计算机学院", Title: "教授", Discipline: "软件工程", Contact: "13812345678", Internal: true},
	{ID: "410403198205205678", Name: "李四", CategoryID: "cat002", InService: true, Gender: models.GenderFemale, BirthDate: "1982-05-20", WorkUnit: seedUnit, Department: "经管学院", Title: "副教授", Discipline: "会计学", Contact: "13987654321", Internal: true},
	{ID: "410404196511309012", Name: "王五", CategoryID: "cat003", InService: true, Gender: models.GenderMale, BirthDate: "1965-11-30", WorkUnit: seedUnit, Department: "医学院", Title: "主任医师", Discipline: "临床医学", Contact: "13711112222", Internal: true},
	{ID: "410402197808083456", Name: "赵六", CategoryID: "cat001", InService: false, Gender: models.GenderFemale, BirthDate: "1978-08-08", WorkUnit: seedUnit, Department: "电气学院", Title: "教授", Discipline: "自动化", Contact: "13633334444", Internal: true},
	{ID: "410402198503127890", Name: "孙七", CategoryID: "cat004", InService: true, Gender: models.GenderMale, BirthDate: "1985-03-12", WorkUnit: seedUnit, Department: "纪检委", Title: "处长", Discipline: "行政管理", Contact: "13555556666", Internal: true},
	{ID: "410403199007211122", Name: "周八", CategoryID: "cat002", InService: true, Gender: models.GenderFemale, BirthDate: "1990-07-21", WorkUnit: seedUnit, Department: "金融系", Title: "讲师", Discipline: "国际贸易", Contact: "13444445555", Internal: true},
	{ID: "410404197609013344", Name: "吴九", CategoryID: "cat001", InService: true, Gender: models.GenderMale, BirthDate: "1976-09-01", WorkUnit: seedUnit, Department: "土木工程学院", Title: "高级工程师", Discipline: "结构工程", Contact: "13333332222", Internal: true},
	{ID: "410402198812185566", Name: "郑十", CategoryID: "cat003", InService: true, Gender: models.GenderFemale, BirthDate: "1988-12-18", WorkUnit: seedUnit, Department: "护理学院", Title: "副教授", Discipline: "护理学", Contact: "13222221111", Internal: true},
	{ID: "410403196902287788", Name: "冯十一", CategoryID: "cat001", InService: true, Gender: models.GenderMale, BirthDate: "1969-02-28", WorkUnit: seedUnit, Department: "化学化工学院", Title: "教授", Discipline: "材料化学", Contact: "13111119999", Internal: true},
	{ID: "410404198306069900", Name: "陈十二", CategoryID: "cat002", InService: true, Gender: models.GenderFemale, BirthDate: "1983-06-06", WorkUnit: seedUnit, Department: "旅游管理系", Title: "副教授", Discipline: "酒店管理", Contact: "13000008888", Internal: true},
	{ID: "41040219751010101X", Name: "褚十三", CategoryID: "cat004", InService: true, Gender: models.GenderMale, BirthDate: "1975-10-10", WorkUnit: seedUnit, Department: "审计处", Title: "副处长", Discipline: "审计学", Contact: "12999997777", Internal: true},
	{ID: "410403199104142021", Name: "卫十四", CategoryID: "cat003", InService: true, Gender: models.GenderFemale, BirthDate: "1991-04-14", WorkUnit: seedUnit, Department: "药学院", Title: "讲师", Discipline: "药剂学", Contact: "12888886666", Internal: true},
	{ID: "410404198001233032", Name: "蒋十五", CategoryID: "cat001", InService: false, Gender: models.GenderMale, BirthDate: "1980-01-23", WorkUnit: seedUnit, Department: "文学院", Title: "教授", Discipline: "汉语言文学", Contact: "12777775555", Internal: true},
	{ID: "410402197207074043", Name: "沈十六", CategoryID: "cat002", InService: true, Gender: models.GenderFemale, BirthDate: "1972-07-07", WorkUnit: seedUnit, Department: "法学院", Title: "教授", Discipline: "经济法", Contact: "12666664444", Internal: true},
	{ID: "410403198608165054", Name: "韩十七", CategoryID: "cat003", InService: true, Gender: models.GenderMale, BirthDate: "1986-08-16", WorkUnit: seedUnit, Department: "口腔医学院", Title: "主治医师", Discipline: "口腔正畸学", Contact: "12555553333", Internal: true},
}

// Seed writes the bootstrap categories and experts into w. Safe to re-run.
func Seed(ctx context.Context, w Writer) error {
	for _, c := range SeedCategories {
		if err := w.PutCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}
	for _, e := range SeedExperts {
		if err := w.PutExpert(ctx, e); err != nil {
			return fmt.Errorf("seed expert %s: %w", e.ID, err)
		}
	}
	return nil
}
