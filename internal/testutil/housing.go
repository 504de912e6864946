package testutil

import (
	"strconv"
	"strings"
)

// HousingColumns is the column layout of the Ames house price files.
var HousingColumns = []string{
	"Id", "MSSubClass", "MSZoning", "LotFrontage", "LotArea", "Street", "Alley",
	"LotShape", "LandContour", "Utilities", "LotConfig", "LandSlope", "Neighborhood",
	"Condition1", "Condition2", "BldgType", "HouseStyle", "OverallQual", "OverallCond",
	"YearBuilt", "YearRemodAdd", "RoofStyle", "RoofMatl", "Exterior1st", "Exterior2nd",
	"MasVnrType", "MasVnrArea", "ExterQual", "ExterCond", "Foundation", "BsmtQual",
	"BsmtCond", "BsmtExposure", "BsmtFinType1", "BsmtFinSF1", "BsmtFinType2",
	"BsmtFinSF2", "BsmtUnfSF", "TotalBsmtSF", "Heating", "HeatingQC", "CentralAir",
	"Electrical", "1stFlrSF", "2ndFlrSF", "LowQualFinSF", "GrLivArea", "BsmtFullBath",
	"BsmtHalfBath", "FullBath", "HalfBath", "BedroomAbvGr", "KitchenAbvGr",
	"KitchenQual", "TotRmsAbvGrd", "Functional", "Fireplaces", "FireplaceQu",
	"GarageType", "GarageYrBlt", "GarageFinish", "GarageCars", "GarageArea",
	"GarageQual", "GarageCond", "PavedDrive", "WoodDeckSF", "OpenPorchSF",
	"EnclosedPorch", "3SsnPorch", "ScreenPorch", "PoolArea", "PoolQC", "Fence",
	"MiscFeature", "MiscVal", "MoSold", "YrSold", "SaleType", "SaleCondition",
}

var housingPools = map[string][]string{
	"MSSubClass":    {"20", "60", "50", "120", "30"},
	"MSZoning":      {"RL", "RM", "FV", "RH"},
	"Street":        {"Pave", "Pave", "Grvl"},
	"Alley":         {"NA", "NA", "Grvl", "Pave"},
	"LotShape":      {"Reg", "IR1", "IR2"},
	"LandContour":   {"Lvl", "Bnk", "HLS"},
	"Utilities":     {"AllPub"},
	"LotConfig":     {"Inside", "Corner", "CulDSac", "FR2"},
	"LandSlope":     {"Gtl", "Gtl", "Mod", "Sev"},
	"Neighborhood":  {"CollgCr", "Veenker", "Crawfor", "NoRidge", "Mitchel"},
	"Condition1":    {"Norm", "Feedr", "PosN", "Artery", "RRAe"},
	"Condition2":    {"Norm", "Norm", "Feedr"},
	"BldgType":      {"1Fam", "2fmCon", "Duplex", "TwnhsE"},
	"HouseStyle":    {"2Story", "1Story", "1.5Fin", "SLvl", "SFoyer"},
	"RoofStyle":     {"Gable", "Hip"},
	"RoofMatl":      {"CompShg", "WdShngl"},
	"Exterior1st":   {"VinylSd", "MetalSd", "Wd Sdng", "HdBoard"},
	"Exterior2nd":   {"VinylSd", "MetalSd", "Wd Shng", "HdBoard"},
	"MasVnrType":    {"None", "BrkFace", "Stone"},
	"ExterQual":     {"Gd", "TA", "Ex", "Fa"},
	"ExterCond":     {"TA", "Gd", "Fa"},
	"Foundation":    {"PConc", "CBlock", "BrkTil"},
	"BsmtQual":      {"Gd", "TA", "Ex", "Fa"},
	"BsmtCond":      {"TA", "Gd", "Fa", "Po"},
	"BsmtExposure":  {"No", "Gd", "Mn", "Av"},
	"BsmtFinType1":  {"GLQ", "ALQ", "Unf", "Rec", "BLQ", "LwQ"},
	"BsmtFinType2":  {"Unf", "Unf", "Rec", "LwQ"},
	"Heating":       {"GasA", "GasA", "GasW", "Grav"},
	"HeatingQC":     {"Ex", "Gd", "TA", "Fa", "Po"},
	"CentralAir":    {"Y", "Y", "N"},
	"Electrical":    {"SBrkr", "FuseA", "FuseF", "FuseP", "Mix"},
	"KitchenQual":   {"Gd", "TA", "Ex", "Fa"},
	"Functional":    {"Typ", "Min1", "Min2", "Mod", "Maj1"},
	"FireplaceQu":   {"Gd", "TA", "Fa", "Ex", "Po"},
	"GarageType":    {"Attchd", "Detchd", "BuiltIn"},
	"GarageFinish":  {"RFn", "Unf", "Fin"},
	"GarageQual":    {"TA", "Fa", "Gd", "Po", "Ex"},
	"GarageCond":    {"TA", "Fa", "Gd", "Po", "Ex"},
	"PavedDrive":    {"Y", "N", "P"},
	"Fence":         {"NA", "NA", "MnPrv", "GdWo"},
	"MiscFeature":   {"NA", "NA", "NA", "Shed"},
	"SaleType":      {"WD", "New", "COD", "ConLD"},
	"SaleCondition": {"Normal", "Abnorml", "Partial"},
}

// Columns left empty in some prediction rows, as in the real test file.
var predictionGaps = []string{
	"MSZoning", "Utilities", "Exterior1st", "Exterior2nd", "KitchenQual",
	"Functional", "SaleType", "BsmtFinSF1", "TotalBsmtSF", "GarageCars",
}

// HousingCSV renders a synthetic Ames-shaped file with n rows and ids
// starting at firstID. withLabel adds the SalePrice column and makes row 7
// a GrLivArea outlier (above 4000). Prediction files leave a few cells
// empty that the training file always fills.
func HousingCSV(n, firstID int, withLabel bool) string {
	header := append([]string(nil), HousingColumns...)
	if withLabel {
		header = append(header, "SalePrice")
	}

	var sb strings.Builder
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n")

	for i := 0; i < n; i++ {
		row := housingRow(i, firstID+i, withLabel)
		if !withLabel && i < len(predictionGaps) {
			row[predictionGaps[i]] = "NA"
		}
		cells := make([]string, len(header))
		for j, col := range header {
			cells[j] = row[col]
		}
		sb.WriteString(strings.Join(cells, ","))
		sb.WriteString("\n")
	}
	return sb.String()
}

func housingRow(i, id int, train bool) map[string]string {
	row := make(map[string]string, len(HousingColumns)+1)
	for j, col := range HousingColumns {
		if pool, ok := housingPools[col]; ok {
			row[col] = pool[(i*7+j)%len(pool)]
		}
	}
	itoa := strconv.Itoa

	row["Id"] = itoa(id)

	lotFrontage := "NA"
	if i%9 != 4 {
		lotFrontage = itoa(50 + (i*13)%60)
	}
	row["LotFrontage"] = lotFrontage
	row["LotArea"] = itoa(5000 + (i*977)%10000)

	qual := 3 + (i*5)%8
	row["OverallQual"] = itoa(qual)
	row["OverallCond"] = itoa(4 + (i*3)%5)
	built := 1950 + (i*11)%60
	row["YearBuilt"] = itoa(built)
	row["YearRemodAdd"] = itoa(built + i%10)

	masVnr := 0
	if row["MasVnrType"] != "None" {
		masVnr = 100 + (i*37)%300
	}
	row["MasVnrArea"] = itoa(masVnr)
	if i%17 == 5 {
		row["MasVnrArea"] = "NA"
	}

	finSF1, finSF2, unf := (i*131)%1400, 0, 200+(i*71)%900
	if i%6 == 0 {
		finSF2 = 100 + (i%5)*20
	}
	if i%13 == 12 {
		for _, col := range []string{"BsmtQual", "BsmtCond", "BsmtExposure", "BsmtFinType1", "BsmtFinType2"} {
			row[col] = "NA"
		}
		finSF1, finSF2, unf = 0, 0, 0
	}
	row["BsmtFinSF1"] = itoa(finSF1)
	row["BsmtFinSF2"] = itoa(finSF2)
	row["BsmtUnfSF"] = itoa(unf)
	row["TotalBsmtSF"] = itoa(finSF1 + finSF2 + unf)

	first := 700 + (i*53)%900
	second := 0
	if i%2 == 1 {
		second = 400 + (i*29)%500
	}
	lowQual := 0
	if i%15 == 14 {
		lowQual = 80
	}
	living := first + second + lowQual
	if train && i == 7 {
		second = 3300
		living = first + second + lowQual
	}
	row["1stFlrSF"] = itoa(first)
	row["2ndFlrSF"] = itoa(second)
	row["LowQualFinSF"] = itoa(lowQual)
	row["GrLivArea"] = itoa(living)

	row["BsmtFullBath"] = itoa(i % 2)
	row["BsmtHalfBath"] = itoa(boolInt(i%4 == 0))
	row["FullBath"] = itoa(1 + i%3)
	row["HalfBath"] = itoa(i % 2)
	row["BedroomAbvGr"] = itoa(2 + i%3)
	row["KitchenAbvGr"] = "1"
	row["TotRmsAbvGrd"] = itoa(4 + i%6)

	fireplaces := i % 3
	row["Fireplaces"] = itoa(fireplaces)
	if fireplaces == 0 {
		row["FireplaceQu"] = "NA"
	}

	cars := 1 + i%3
	row["GarageYrBlt"] = itoa(built)
	if i%11 == 10 {
		for _, col := range []string{"GarageType", "GarageFinish", "GarageQual", "GarageCond", "GarageYrBlt"} {
			row[col] = "NA"
		}
		cars = 0
	}
	row["GarageCars"] = itoa(cars)
	row["GarageArea"] = itoa(cars * 240)

	row["WoodDeckSF"] = itoa((i * 17) % 200)
	row["OpenPorchSF"] = itoa((i * 23) % 100)
	row["EnclosedPorch"] = itoa(100 * boolInt(i%5 == 2))
	row["3SsnPorch"] = "0"
	row["ScreenPorch"] = itoa(120 * boolInt(i%7 == 3))

	row["PoolArea"] = "0"
	row["PoolQC"] = "NA"
	if i == 3 {
		row["PoolArea"] = "512"
		row["PoolQC"] = "Gd"
	}
	row["MiscVal"] = "0"
	if row["MiscFeature"] == "Shed" {
		row["MiscVal"] = "400"
	}
	row["MoSold"] = itoa(1 + i%12)
	row["YrSold"] = itoa(2006 + i%5)

	if train {
		price := 20000 + 60*living + 15000*qual + (i*997)%20000
		row["SalePrice"] = itoa(price)
	}
	return row
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
