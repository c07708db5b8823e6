package questions

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"

	"placement-service/internal/adaptive"
	"placement-service/internal/models"
)

// topicGenerator adapts a plain generation function to the Generator
// interface. All built-in generators share this shape.
type topicGenerator struct {
	topic    adaptive.Topic
	generate func(rng *rand.Rand, difficulty float64, gradeLevel int) (expression, answer, format string)
}

func (g *topicGenerator) Topic() adaptive.Topic { return g.topic }

func (g *topicGenerator) Generate(difficulty float64, gradeLevel int) (*models.Question, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	expression, answer, format := g.generate(rng, difficulty, gradeLevel)

	return &models.Question{
		ID:              "q-" + uuid.NewString(),
		Topic:           g.topic,
		Expression:      expression,
		CorrectAnswer:   answer,
		AnswerFormat:    format,
		DifficultyScore: difficulty,
		DifficultyTier:  models.TierForScore(difficulty),
		GradeLevel:      gradeLevel,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

// builtinGenerators returns one deterministic generator per topic.
// Operand magnitudes scale with difficulty; every answer is computed
// exactly from the generated operands.
func builtinGenerators() []Generator {
	return []Generator{
		&topicGenerator{adaptive.TopicArithmetic, generateArithmetic},
		&topicGenerator{adaptive.TopicFractions, generateFractions},
		&topicGenerator{adaptive.TopicPercentages, generatePercentages},
		&topicGenerator{adaptive.TopicRatios, generateRatios},
		&topicGenerator{adaptive.TopicExponents, generateExponents},
		&topicGenerator{adaptive.TopicNumberTheory, generateNumberTheory},
		&topicGenerator{adaptive.TopicAlgebra, generateAlgebra},
		&topicGenerator{adaptive.TopicInequalities, generateInequalities},
		&topicGenerator{adaptive.TopicSystemsOfEquations, generateSystems},
		&topicGenerator{adaptive.TopicPolynomials, generatePolynomials},
		&topicGenerator{adaptive.TopicFunctions, generateFunctions},
		&topicGenerator{adaptive.TopicGeometry, generateGeometry},
		&topicGenerator{adaptive.TopicCoordinateGeometry, generateCoordinateGeometry},
		&topicGenerator{adaptive.TopicTrigonometry, generateTrigonometry},
		&topicGenerator{adaptive.TopicStatistics, generateStatistics},
		&topicGenerator{adaptive.TopicSetsAndLogic, generateSetsAndLogic},
	}
}

// operandMax scales a base operand ceiling by difficulty, keeping a
// usable floor for the easiest questions.
func operandMax(base int, difficulty float64) int {
	scaled := int(float64(base) * (0.15 + 0.85*difficulty))
	if scaled < 5 {
		return 5
	}
	return scaled
}

// randBetween returns a random integer in [lo, hi] (inclusive).
func randBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

func itoa(n int) string { return strconv.Itoa(n) }

func gcd(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func generateArithmetic(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	max := operandMax(20+gradeLevel*15, difficulty)

	ops := []string{"+"}
	if difficulty >= 0.25 {
		ops = append(ops, "-")
	}
	if difficulty >= 0.45 {
		ops = append(ops, "×")
	}
	if difficulty >= 0.65 {
		ops = append(ops, "÷")
	}
	op := ops[rng.Intn(len(ops))]

	switch op {
	case "+":
		a, b := randBetween(rng, 1, max), randBetween(rng, 1, max)
		return fmt.Sprintf("%d + %d = ?", a, b), itoa(a + b), models.FormatInteger
	case "-":
		a, b := randBetween(rng, 1, max), randBetween(rng, 1, max)
		if b > a {
			a, b = b, a
		}
		return fmt.Sprintf("%d - %d = ?", a, b), itoa(a - b), models.FormatInteger
	case "×":
		a := randBetween(rng, 2, int(math.Max(3, math.Sqrt(float64(max)))))
		b := randBetween(rng, 2, 12)
		return fmt.Sprintf("%d × %d = ?", a, b), itoa(a * b), models.FormatInteger
	default: // division with an exact quotient
		quotient := randBetween(rng, 2, 12)
		divisor := randBetween(rng, 2, 12)
		return fmt.Sprintf("%d ÷ %d = ?", quotient*divisor, divisor), itoa(quotient), models.FormatInteger
	}
}

func generateFractions(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	den := randBetween(rng, 2, 6+int(difficulty*10))
	a := randBetween(rng, 1, den-1)

	if difficulty < 0.4 {
		// Same-denominator addition.
		b := randBetween(rng, 1, den-1)
		num := a + b
		g := gcd(num, den)
		return fmt.Sprintf("%d/%d + %d/%d = ?", a, den, b, den),
			fmt.Sprintf("%d/%d", num/g, den/g), models.FormatFraction
	}

	// Different denominators.
	den2 := randBetween(rng, 2, 6+int(difficulty*10))
	b := randBetween(rng, 1, den2)
	num := a*den2 + b*den
	newDen := den * den2
	g := gcd(num, newDen)
	return fmt.Sprintf("%d/%d + %d/%d = ?", a, den, b, den2),
		fmt.Sprintf("%d/%d", num/g, newDen/g), models.FormatFraction
}

func generatePercentages(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	percents := []int{10, 20, 25, 50}
	if difficulty >= 0.4 {
		percents = append(percents, 5, 15, 30, 75)
	}
	if difficulty >= 0.7 {
		percents = append(percents, 12, 35, 65, 85)
	}
	p := percents[rng.Intn(len(percents))]

	// Pick a base that yields an integer answer.
	base := randBetween(rng, 1, operandMax(30, difficulty)) * 100 / gcd(p, 100)
	answer := base * p / 100
	return fmt.Sprintf("What is %d%% of %d?", p, base), itoa(answer), models.FormatInteger
}

func generateRatios(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	factor := randBetween(rng, 2, 3+int(difficulty*9))
	a := randBetween(rng, 1, 9)
	b := randBetween(rng, 1, 9)
	g := gcd(a, b)
	return fmt.Sprintf("Simplify the ratio %d:%d", a*factor, b*factor),
		fmt.Sprintf("%d:%d", a/g, b/g), models.FormatExpression
}

func generateExponents(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	if difficulty >= 0.6 && rng.Intn(2) == 0 {
		// Square root of a perfect square.
		root := randBetween(rng, 2, 6+int(difficulty*14))
		return fmt.Sprintf("√%d = ?", root*root), itoa(root), models.FormatInteger
	}
	base := randBetween(rng, 2, 4+int(difficulty*8))
	exp := randBetween(rng, 2, 3)
	answer := 1
	for i := 0; i < exp; i++ {
		answer *= base
	}
	return fmt.Sprintf("%d^%d = ?", base, exp), itoa(answer), models.FormatInteger
}

func generateNumberTheory(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	g := randBetween(rng, 2, 3+int(difficulty*9))
	a := g * randBetween(rng, 2, 8)
	b := g * randBetween(rng, 2, 8)
	if difficulty >= 0.5 && rng.Intn(2) == 0 {
		lcm := a * b / gcd(a, b)
		return fmt.Sprintf("LCM(%d, %d) = ?", a, b), itoa(lcm), models.FormatInteger
	}
	return fmt.Sprintf("GCD(%d, %d) = ?", a, b), itoa(gcd(a, b)), models.FormatInteger
}

func generateAlgebra(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	// ax + b = c with an integer solution.
	a := randBetween(rng, 2, 3+int(difficulty*7))
	x := randBetween(rng, 1, operandMax(20, difficulty))
	b := randBetween(rng, 1, operandMax(30, difficulty))
	c := a*x + b
	return fmt.Sprintf("Solve for x: %dx + %d = %d", a, b, c), itoa(x), models.FormatInteger
}

func generateInequalities(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	a := randBetween(rng, 2, 3+int(difficulty*6))
	b := randBetween(rng, a+1, a*operandMax(12, difficulty))
	// Largest integer x with a*x < b.
	answer := (b - 1) / a
	return fmt.Sprintf("What is the largest integer x with %dx < %d?", a, b),
		itoa(answer), models.FormatInteger
}

func generateSystems(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	x := randBetween(rng, 1, operandMax(15, difficulty))
	y := randBetween(rng, 1, operandMax(15, difficulty))
	return fmt.Sprintf("If x + y = %d and x - y = %d, what is x?", x+y, x-y),
		itoa(x), models.FormatInteger
}

func generatePolynomials(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	a := randBetween(rng, 1, 3+int(difficulty*9))
	b := randBetween(rng, 1, 3+int(difficulty*9))
	// (x+a)(x+b) expands to x² + (a+b)x + ab.
	return fmt.Sprintf("(x + %d)(x + %d) = x² + kx + %d. What is k?", a, b, a*b),
		itoa(a + b), models.FormatInteger
}

func generateFunctions(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	a := randBetween(rng, 2, 3+int(difficulty*7))
	b := randBetween(rng, -9, 9)
	x := randBetween(rng, 1, operandMax(12, difficulty))
	expr := fmt.Sprintf("f(x) = %dx + %d. What is f(%d)?", a, b, x)
	if b < 0 {
		expr = fmt.Sprintf("f(x) = %dx - %d. What is f(%d)?", a, -b, x)
	}
	return expr, itoa(a*x + b), models.FormatInteger
}

func generateGeometry(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	w := randBetween(rng, 2, operandMax(20, difficulty))
	h := randBetween(rng, 2, operandMax(20, difficulty))
	switch {
	case difficulty < 0.35:
		return fmt.Sprintf("What is the perimeter of a %d × %d rectangle?", w, h),
			itoa(2 * (w + h)), models.FormatInteger
	case difficulty < 0.7:
		return fmt.Sprintf("What is the area of a %d × %d rectangle?", w, h),
			itoa(w * h), models.FormatInteger
	default:
		base := 2 * randBetween(rng, 2, operandMax(12, difficulty))
		return fmt.Sprintf("What is the area of a triangle with base %d and height %d?", base, h),
			itoa(base * h / 2), models.FormatInteger
	}
}

func generateCoordinateGeometry(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	if difficulty >= 0.55 {
		// Distance along a 3-4-5 style triple keeps the answer integral.
		triples := [][3]int{{3, 4, 5}, {6, 8, 10}, {5, 12, 13}, {9, 12, 15}}
		tr := triples[rng.Intn(len(triples))]
		x, y := randBetween(rng, -5, 5), randBetween(rng, -5, 5)
		return fmt.Sprintf("What is the distance between (%d, %d) and (%d, %d)?",
			x, y, x+tr[0], y+tr[1]), itoa(tr[2]), models.FormatInteger
	}
	x1 := 2 * randBetween(rng, -6, 6)
	x2 := 2 * randBetween(rng, -6, 6)
	y := randBetween(rng, -9, 9)
	return fmt.Sprintf("What is the x-coordinate of the midpoint of (%d, %d) and (%d, %d)?",
		x1, y, x2, y), itoa((x1 + x2) / 2), models.FormatInteger
}

func generateTrigonometry(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	type angleValue struct {
		fn     string
		degree int
		answer string
	}
	easy := []angleValue{
		{"sin", 0, "0"}, {"sin", 90, "1"}, {"cos", 0, "1"}, {"cos", 90, "0"},
		{"tan", 0, "0"}, {"tan", 45, "1"},
	}
	hard := []angleValue{
		{"sin", 30, "0.5"}, {"cos", 60, "0.5"},
		{"sin", 180, "0"}, {"cos", 180, "-1"},
	}
	pool := easy
	if difficulty >= 0.5 {
		pool = append(pool, hard...)
	}
	av := pool[rng.Intn(len(pool))]
	return fmt.Sprintf("%s(%d°) = ?", av.fn, av.degree), av.answer, models.FormatDecimal
}

func generateStatistics(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	n := 3
	if difficulty >= 0.5 {
		n = 5
	}
	// Build values around a target mean so the mean is integral.
	mean := randBetween(rng, 3, operandMax(25, difficulty))
	values := make([]int, n)
	sum := 0
	for i := 0; i < n-1; i++ {
		values[i] = randBetween(rng, 1, mean*2-1)
		sum += values[i]
	}
	values[n-1] = mean*n - sum
	if values[n-1] < 0 {
		// Shift everything up to keep the data positive.
		shift := -values[n-1] + 1
		for i := range values {
			values[i] += shift
		}
		mean += shift
	}

	list := ""
	for i, v := range values {
		if i > 0 {
			list += ", "
		}
		list += itoa(v)
	}
	return fmt.Sprintf("What is the mean of %s?", list), itoa(mean), models.FormatInteger
}

func generateSetsAndLogic(rng *rand.Rand, difficulty float64, gradeLevel int) (string, string, string) {
	sizeA := randBetween(rng, 3, operandMax(20, difficulty))
	sizeB := randBetween(rng, 3, operandMax(20, difficulty))
	maxOverlap := sizeA
	if sizeB < maxOverlap {
		maxOverlap = sizeB
	}
	overlap := randBetween(rng, 1, maxOverlap)
	return fmt.Sprintf("|A| = %d, |B| = %d and |A ∩ B| = %d. What is |A ∪ B|?",
		sizeA, sizeB, overlap), itoa(sizeA + sizeB - overlap), models.FormatInteger
}
