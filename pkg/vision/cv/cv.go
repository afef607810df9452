// Package cv 提供模板匹配的基础操作
//
// 匹配使用归一化相关系数 (TM_CCOEFF_NORMED)，得分范围 [-1, 1]，
// 完全一致时为 1。
//
// 基本用法:
//
//	screen, _ := cv.ReadImage("screen.png", true)
//	defer screen.Close()
//	tpl, _ := cv.ReadImage("template.png", true)
//	defer tpl.Close()
//
//	res, err := cv.NewTemplateMatching(tpl, screen, 0.8).FindBestResult()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if res.Hit {
//	    fmt.Printf("找到位置: (%d, %d)\n", res.Location.X, res.Location.Y)
//	}
package cv
